package domain

import (
	"fmt"
	"time"
)

// Session es el estado de la wallet conectada. Se pasa explícito a cada
// operación en vez de vivir en un global del SDK de wallet.
type Session struct {
	Address   string
	Connected bool
}

// RequireConnected devuelve ErrPreconditionNotMet si no hay wallet conectada.
func (s Session) RequireConnected() error {
	if !s.Connected || s.Address == "" {
		return fmt.Errorf("wallet not connected: %w", ErrPreconditionNotMet)
	}
	return nil
}

// UserAccount es el registro persistido de un usuario: su wallet y, una vez
// desplegada, la dirección de su Titan Smart Account.
type UserAccount struct {
	Address   string
	TSA       string // vacío hasta que el deploy confirma
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTSA devuelve true si la cuenta ya tiene TSA desplegada.
func (u UserAccount) HasTSA() bool {
	return u.TSA != ""
}
