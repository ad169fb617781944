package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/ports"
)

// Pipeline encadena refs → documentos → reconciliación. Cada Run es un
// recálculo completo; no cachea nada entre pasadas.
type Pipeline struct {
	positions  ports.PositionProvider
	reconciler *Reconciler
}

// NewPipeline crea un Pipeline.
func NewPipeline(positions ports.PositionProvider, reconciler *Reconciler) *Pipeline {
	return &Pipeline{positions: positions, reconciler: reconciler}
}

// Run devuelve las posiciones de owner ordenadas por id. Solo falla si no se
// pudieron obtener las refs; los fallos por item se descartan.
func (p *Pipeline) Run(ctx context.Context, owner string, dir *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
	refs, err := p.positions.FetchPositionRefs(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("reconciler.Pipeline.Run: %w", err)
	}

	docs := p.positions.FetchMetadataDocuments(ctx, refs)
	positions := p.reconciler.Reconcile(ctx, docs, dir)
	domain.SortByID(positions)

	slog.Debug("pipeline run complete",
		"owner", owner,
		"refs", len(refs),
		"documents", len(docs),
		"positions", len(positions),
	)
	return positions, nil
}

// Position reconcilia una única posición por id (vista de detalle).
func (p *Pipeline) Position(ctx context.Context, id string, dir *domain.TokenDirectory) (domain.ReconciledPosition, error) {
	meta, err := p.positions.FetchPosition(ctx, domain.PositionRef{ID: id})
	if err != nil {
		return domain.ReconciledPosition{}, fmt.Errorf("reconciler.Pipeline.Position: %w", err)
	}
	return p.reconciler.ReconcileOne(ctx, meta, dir)
}
