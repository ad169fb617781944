package domain

import "errors"

// Taxonomía de errores. Los adapters y servicios envuelven estos sentinels con
// fmt.Errorf("pkg.Func: ...: %w") para que los callers usen errors.Is.
var (
	// ErrInvalidArgument indica una entrada mal formada a una función pura
	// (precio no positivo, rango de ticks invertido, atributo ilegible).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable indica que falló una llamada de red requerida
	// (lista de tokens, refs de posiciones). Aborta la operación que la necesitaba.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPreconditionNotMet indica una regla de negocio no satisfecha:
	// wallet no conectada o TSA no desplegada.
	ErrPreconditionNotMet = errors.New("precondition not met")

	// ErrAccountNotFound indica que no existe registro para la wallet.
	ErrAccountNotFound = errors.New("account not found")
)
