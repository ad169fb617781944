package ports

import (
	"context"

	"github.com/alejandrodnm/titan/internal/domain"
)

// CallExecutor entrega una multicall a quien la firma y la envía.
// Devuelve un identificador de la transacción o del artefacto generado.
type CallExecutor interface {
	Execute(ctx context.Context, calls []domain.Call) (string, error)
}
