package tickmath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	feeDenominator = 1_000_000
	displayPlaces  = 4
)

var (
	q128Dec     = decimal.NewFromBigInt(new(uint256.Int).Lsh(uint256.NewInt(1), 128).ToBig(), 0)
	feeDenomDec = decimal.NewFromInt(feeDenominator)
	hundredDec  = decimal.NewFromInt(100)
)

// FeeToFixedPoint128 escala un fee tier en partes por millón a una fracción
// en punto fijo 0.128: fee · 2^128 / 10^6, división entera.
func FeeToFixedPoint128(fee uint64) *uint256.Int {
	v := new(uint256.Int).Lsh(uint256.NewInt(fee), 128)
	return v.Div(v, uint256.NewInt(feeDenominator))
}

// FeeFromFixedPoint128 devuelve el fee como porcentaje (0.3 para 0.3%),
// redondeado a 4 decimales. Solo para mostrar.
func FeeFromFixedPoint128(fee *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(fee.ToBig(), 0).DivRound(q128Dec, 12).Mul(hundredDec).Round(displayPlaces)
}

// TickSpacingFromEncoded decodifica un entero en hex (0x…) o decimal, lo
// divide por 1_000_000 y lo redondea a 4 decimales. Solo para mostrar.
func TickSpacingFromEncoded(encoded string) (decimal.Decimal, error) {
	v, err := ParseUint(encoded)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tickmath.TickSpacingFromEncoded: %w", err)
	}
	return decimal.NewFromBigInt(v.ToBig(), 0).DivRound(feeDenomDec, 12).Round(displayPlaces), nil
}

// ParseUint parsea un entero no negativo de hasta 256 bits en hex o decimal.
func ParseUint(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer: %w", domain.ErrInvalidArgument)
	}
	b, ok := math.ParseBig256(s)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("invalid integer %q: %w", s, domain.ErrInvalidArgument)
	}
	v, _ := uint256.FromBig(b)
	return v, nil
}

// ParseTick parsea un tick con signo. Acepta decimal ("-887272") o un felt
// en hex/decimal sin signo que represente la magnitud.
func ParseTick(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if t, err := strconv.ParseInt(s, 10, 64); err == nil {
		return t, nil
	}
	v, err := ParseUint(s)
	if err != nil {
		return 0, fmt.Errorf("tickmath.ParseTick: %w", err)
	}
	if !v.IsUint64() || v.Uint64() > 1<<62 {
		return 0, fmt.Errorf("tickmath.ParseTick: %q out of range: %w", s, domain.ErrInvalidArgument)
	}
	return int64(v.Uint64()), nil
}
