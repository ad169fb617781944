package tickmath

// tick.go: conversión precio ↔ tick de Ekubo.
//
// En Ekubo el precio de un tick t es 1.000001^t y el pool guarda la raíz del
// precio en punto fijo 128.128 (sqrt_ratio). La conversión canónica pasa por
// esa representación:
//
//	sqrtRatio = floor(sqrt(price) · 2^128)
//	tick      = round( ln(sqrtRatio / 2^128) / ln(sqrt(1.000001)) )
//
// Precisión garantizada: la raíz se calcula con big.Float de 256 bits de
// mantisa (~77 dígitos) y los logaritmos con shopspring/decimal a 78 dígitos
// decimales. Para precios en [1e-6, 1e6] reconstruir el precio desde el tick
// da un error relativo ≤ 1e-6 (un paso de tick); la diferencia con el valor
// exacto está ~30 órdenes de magnitud por debajo del medio tick que decide
// el redondeo. Redondeo: mitad lejos de cero.

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// floatPrec son los bits de mantisa para la raíz cuadrada.
	floatPrec = 256
	// lnPrecision son los dígitos decimales de los logaritmos.
	lnPrecision = 78
	// expPrecision son los dígitos decimales de TickToPrice.
	expPrecision = 40
)

var (
	tickBase = decimal.RequireFromString("1.000001")

	// lnQ128 = ln(2^128)
	lnQ128 = mustLn(decimal.NewFromInt(2)).Mul(decimal.NewFromInt(128))
	// lnTickBase = ln(1.000001)
	lnTickBase = mustLn(tickBase)
	// lnSqrtTickBase = ln(sqrt(1.000001))
	lnSqrtTickBase = lnTickBase.DivRound(decimal.NewFromInt(2), lnPrecision)

	// ExpTaylor cachea factoriales en un slice global sin sincronizar.
	expMu sync.Mutex
)

func mustLn(d decimal.Decimal) decimal.Decimal {
	v, err := d.Ln(lnPrecision)
	if err != nil {
		panic(fmt.Sprintf("tickmath: ln(%s): %v", d, err))
	}
	return v
}

// SqrtRatioX128 devuelve floor(sqrt(price) · 2^128).
// Falla con domain.ErrInvalidArgument si price <= 0 o si el resultado no
// cabe en 256 bits o es cero.
func SqrtRatioX128(price decimal.Decimal) (*uint256.Int, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("tickmath.SqrtRatioX128: price %s must be positive: %w", price, domain.ErrInvalidArgument)
	}

	p := new(big.Float).SetPrec(floatPrec).SetRat(price.Rat())
	root := new(big.Float).SetPrec(floatPrec).Sqrt(p)
	root.SetMantExp(root, 128)

	ratio, _ := root.Int(nil)
	if ratio.Sign() == 0 {
		return nil, fmt.Errorf("tickmath.SqrtRatioX128: price %s below fixed-point resolution: %w", price, domain.ErrInvalidArgument)
	}
	v, overflow := uint256.FromBig(ratio)
	if overflow {
		return nil, fmt.Errorf("tickmath.SqrtRatioX128: price %s overflows 256 bits: %w", price, domain.ErrInvalidArgument)
	}
	return v, nil
}

// PriceToTick convierte un precio decimal en el tick con signo más cercano.
func PriceToTick(price decimal.Decimal) (int64, error) {
	ratio, err := SqrtRatioX128(price)
	if err != nil {
		return 0, fmt.Errorf("tickmath.PriceToTick: %w", err)
	}

	lnRatio, err := decimal.NewFromBigInt(ratio.ToBig(), 0).Ln(lnPrecision)
	if err != nil {
		return 0, fmt.Errorf("tickmath.PriceToTick: ln: %w", err)
	}

	// ln(ratio / 2^128) = ln(ratio) - ln(2^128): evita dividir por 2^128 y
	// perder dígitos significativos en precios chicos.
	tick := lnRatio.Sub(lnQ128).DivRound(lnSqrtTickBase, 40).Round(0)
	return tick.IntPart(), nil
}

// PriceToTickAbs es la variante heredada en float64 que devuelve solo la
// magnitud del tick. Pierde el signo y puede errar por un tick cerca de los
// extremos; usar PriceToTick salvo que solo importe la magnitud.
func PriceToTickAbs(price float64) int64 {
	sqrtRatio := math.Sqrt(price * math.Pow(2, 256))
	tick := math.Log(sqrtRatio/math.Pow(2, 128)) / math.Log(math.Sqrt(1.000001))
	return int64(math.Abs(math.Round(tick)))
}

// TickToPrice devuelve 1.000001^tick con expPrecision decimales.
func TickToPrice(tick int64) decimal.Decimal {
	if tick == 0 {
		return decimal.NewFromInt(1)
	}
	x := decimal.NewFromInt(tick).Mul(lnTickBase).Round(lnPrecision - 18)
	expMu.Lock()
	p, err := x.ExpTaylor(expPrecision)
	expMu.Unlock()
	if err != nil {
		// ExpTaylor solo falla con precisión negativa
		panic(fmt.Sprintf("tickmath.TickToPrice: %v", err))
	}
	return p
}

// AlignTicks ajusta los bounds a múltiplos de spacing: el inferior hacia
// abajo y el superior hacia arriba, para no achicar el rango pedido.
func AlignTicks(lower, upper, spacing int64) (int64, int64) {
	if spacing <= 1 {
		return lower, upper
	}
	return floorDiv(lower, spacing) * spacing, -floorDiv(-upper, spacing) * spacing
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
