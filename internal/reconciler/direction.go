package reconciler

import (
	"log/slog"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/tickmath"
	"github.com/shopspring/decimal"
)

// Direction es el resultado de comparar los ticks del NFT con los precios
// del nombre.
type Direction int

const (
	// DirectionUnknown: el documento no trae tick_lower/tick_upper legibles.
	DirectionUnknown Direction = iota
	// DirectionConsistent: los ticks y el nombre cotizan en el mismo sentido.
	DirectionConsistent
	// DirectionInverted: el nombre cotiza token0 en token1, al revés del feed.
	DirectionInverted
	// DirectionMismatch: no coinciden en ningún sentido.
	DirectionMismatch
)

func (d Direction) String() string {
	switch d {
	case DirectionConsistent:
		return "consistent"
	case DirectionInverted:
		return "inverted"
	case DirectionMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// directionTolerance absorbe el redondeo de los ticks al tick spacing
// (hasta ~1% con spacing 10000) y el redondeo del nombre.
var directionTolerance = decimal.RequireFromString("0.02")

// QuoteDirection compara el rango del nombre con los precios que implican
// tick_lower/tick_upper, ajustados por decimales: precio = 1.000001^tick ·
// 10^(dec0-dec1).
func QuoteDirection(meta domain.PositionMetadata, token0, token1 domain.Token, rng domain.PriceRange) Direction {
	lo, hi, ok := tickBoundsPrices(meta, token0, token1)
	if !ok {
		return DirectionUnknown
	}

	if closeTo(lo, rng.Min) && closeTo(hi, rng.Max) {
		return DirectionConsistent
	}
	if rng.Min.IsPositive() && rng.Max.IsPositive() {
		one := decimal.NewFromInt(1)
		invMin := one.DivRound(hi, 40)
		invMax := one.DivRound(lo, 40)
		if closeTo(invMin, rng.Min) && closeTo(invMax, rng.Max) {
			return DirectionInverted
		}
	}
	return DirectionMismatch
}

// checkQuoteDirection loguea cuando el sentido de cotización no cuadra. Una
// inversión silenciosa daría vuelta la clasificación de rango.
func checkQuoteDirection(meta domain.PositionMetadata, token0, token1 domain.Token, rng domain.PriceRange) {
	switch d := QuoteDirection(meta, token0, token1, rng); d {
	case DirectionInverted:
		slog.Warn("position name quotes the inverse of the price feed",
			"position_id", meta.ID,
			"pair", token0.Symbol+"/"+token1.Symbol,
			"min", rng.Min.String(),
			"max", rng.Max.String(),
		)
	case DirectionMismatch:
		slog.Debug("tick bounds do not match position name",
			"position_id", meta.ID,
			"direction", d.String(),
		)
	}
}

func tickBoundsPrices(meta domain.PositionMetadata, token0, token1 domain.Token) (decimal.Decimal, decimal.Decimal, bool) {
	rawLo, okLo := meta.Attr(domain.TraitTickLower)
	rawHi, okHi := meta.Attr(domain.TraitTickUpper)
	if !okLo || !okHi {
		return decimal.Zero, decimal.Zero, false
	}
	tickLo, err := tickmath.ParseTick(rawLo)
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}
	tickHi, err := tickmath.ParseTick(rawHi)
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}
	if tickLo > tickHi {
		tickLo, tickHi = tickHi, tickLo
	}

	scale := decimal.New(1, int32(token0.Decimals-token1.Decimals))
	lo := tickmath.TickToPrice(tickLo).Mul(scale)
	hi := tickmath.TickToPrice(tickHi).Mul(scale)
	return lo, hi, true
}

func closeTo(a, b decimal.Decimal) bool {
	ref := decimal.Max(a.Abs(), b.Abs())
	if ref.IsZero() {
		return true
	}
	return a.Sub(b).Abs().LessThanOrEqual(ref.Mul(directionTolerance))
}
