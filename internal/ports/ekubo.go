package ports

import (
	"context"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/shopspring/decimal"
)

// TokenProvider obtiene la lista de tokens conocidos por el indexer.
type TokenProvider interface {
	// FetchTokens devuelve todos los tokens. Un fallo envuelve
	// domain.ErrUpstreamUnavailable.
	FetchTokens(ctx context.Context) ([]domain.Token, error)
}

// PositionProvider obtiene las posiciones minteadas de un owner.
type PositionProvider interface {
	// FetchPositionRefs devuelve las referencias a los documentos de metadatos.
	// Una lista vacía o ausente no es error.
	FetchPositionRefs(ctx context.Context, owner string) ([]domain.PositionRef, error)

	// FetchMetadataDocuments descarga cada documento en paralelo. Los que
	// fallan se loguean y se excluyen; nunca aborta el lote.
	FetchMetadataDocuments(ctx context.Context, refs []domain.PositionRef) []domain.PositionMetadata

	// FetchPosition descarga un único documento.
	FetchPosition(ctx context.Context, ref domain.PositionRef) (domain.PositionMetadata, error)
}

// PriceProvider obtiene el precio spot de un par ordenado.
type PriceProvider interface {
	// FetchPrice devuelve el precio de token1 en token0. Un campo ausente o
	// no numérico se devuelve como 0, no como error.
	FetchPrice(ctx context.Context, token0, token1 string) (decimal.Decimal, error)
}

// PoolProvider lista los pools existentes para un par.
type PoolProvider interface {
	FetchPoolCandidates(ctx context.Context, token0, token1 string) ([]domain.PoolCandidate, error)
}
