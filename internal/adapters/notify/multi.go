package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/ports"
)

// Multi reparte cada snapshot entre varios notificadores. Un fallo no corta
// a los demás; los errores se devuelven juntos.
type Multi []ports.Notifier

// Notify llama a cada notificador en orden.
func (m Multi) Notify(ctx context.Context, snap domain.Snapshot) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
