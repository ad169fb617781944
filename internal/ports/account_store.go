package ports

import (
	"context"

	"github.com/alejandrodnm/titan/internal/domain"
)

// AccountStore persiste el registro de usuario: wallet → TSA.
type AccountStore interface {
	// UpsertUser crea el registro si no existe. Idempotente.
	UpsertUser(ctx context.Context, address string) error

	// GetUser devuelve domain.ErrAccountNotFound si no hay registro.
	GetUser(ctx context.Context, address string) (domain.UserAccount, error)

	// SetTSA guarda la dirección de la cuenta desplegada.
	SetTSA(ctx context.Context, address, tsa string) error
}
