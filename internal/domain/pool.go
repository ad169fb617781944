package domain

// Fee tiers estándar (partes por millón) y sus tick spacings por defecto.
const (
	FeeLowest = 100
	FeeLow    = 500
	FeeMedium = 3000
	FeeHigh   = 10000
)

// DefaultTickSpacings mapea fee tier → tick spacing.
var DefaultTickSpacings = map[int]int64{
	FeeLowest: 200,
	FeeLow:    1000,
	FeeMedium: 5096,
	FeeHigh:   10000,
}

// PoolCandidate es un pool existente para un par, tal como lo lista
// GET /pair/{t0}/{t1}/pools. Los valores vienen codificados como enteros
// (fee en punto fijo 0.128, tick spacing y extension como felts).
type PoolCandidate struct {
	Fee         string
	TickSpacing string
	Extension   string
}

// PoolKey identifica un pool on-chain.
type PoolKey struct {
	Token0      string
	Token1      string
	Fee         string
	TickSpacing string
	Extension   string
}

// KeyFor construye el PoolKey de un candidato para un par de tokens.
func (c PoolCandidate) KeyFor(token0, token1 Token) PoolKey {
	ext := c.Extension
	if ext == "" {
		ext = "0x0"
	}
	return PoolKey{
		Token0:      token0.Address,
		Token1:      token1.Address,
		Fee:         c.Fee,
		TickSpacing: c.TickSpacing,
		Extension:   ext,
	}
}
