package ports

import (
	"context"

	"github.com/alejandrodnm/titan/internal/domain"
)

// Notifier presenta las posiciones reconciliadas al usuario.
type Notifier interface {
	// Notify muestra el snapshot. En la implementación de consola, imprime
	// una tabla formateada.
	Notify(ctx context.Context, snap domain.Snapshot) error
}
