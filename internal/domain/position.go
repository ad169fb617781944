package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Nombres de trait_type conocidos en los metadatos de las posiciones Ekubo.
const (
	TraitToken0          = "token0"
	TraitToken1          = "token1"
	TraitMintedTimestamp = "minted_timestamp"
	TraitMintedTxHash    = "minted_tx_hash"
	TraitTickLower       = "tick_lower"
	TraitTickUpper       = "tick_upper"
	TraitFee             = "fee"
	TraitTickSpacing     = "tick_spacing"
	TraitExtension       = "extension"
)

const (
	nameSegmentSep = " : "
	priceRangeSep  = " <> "
)

// PositionRef es una referencia a una posición minteada devuelta por el indexer.
type PositionRef struct {
	ID          string
	MetadataURL string
}

// Attribute es un par {trait_type, value} del documento de metadatos.
type Attribute struct {
	TraitType string
	Value     string
}

// PositionMetadata es el documento off-chain que describe una posición.
// Inmutable una vez obtenido.
type PositionMetadata struct {
	ID          string
	Name        string // "<label> : <min> <> <max> : <fee>"
	Description string
	Image       string
	Attributes  []Attribute
}

// Attr devuelve el valor del primer atributo con el trait_type dado.
func (m PositionMetadata) Attr(trait string) (string, bool) {
	for _, a := range m.Attributes {
		if a.TraitType == trait {
			return a.Value, true
		}
	}
	return "", false
}

// PriceRange es el rango codificado en el nombre de la posición.
type PriceRange struct {
	Label    string
	Min      decimal.Decimal
	Max      decimal.Decimal
	FeeLabel string
}

// Contains devuelve true si price está dentro del rango, inclusivo en ambos extremos.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return r.Min.LessThanOrEqual(price) && price.LessThanOrEqual(r.Max)
}

// ParsePositionName extrae label, precios min/max y fee del nombre.
// Formato: "<label> : <minPrice> <> <maxPrice> : <feeLabel>". El segmento de
// fee es opcional; el de precios no.
func ParsePositionName(name string) (PriceRange, error) {
	segments := strings.Split(name, nameSegmentSep)
	if len(segments) < 2 {
		return PriceRange{}, fmt.Errorf("domain.ParsePositionName: missing %q in %q: %w", nameSegmentSep, name, ErrInvalidArgument)
	}

	bounds := strings.Split(segments[1], priceRangeSep)
	if len(bounds) != 2 {
		return PriceRange{}, fmt.Errorf("domain.ParsePositionName: missing %q in %q: %w", priceRangeSep, segments[1], ErrInvalidArgument)
	}

	minPrice, err := decimal.NewFromString(strings.TrimSpace(bounds[0]))
	if err != nil {
		return PriceRange{}, fmt.Errorf("domain.ParsePositionName: min price %q: %w", bounds[0], ErrInvalidArgument)
	}
	maxPrice, err := decimal.NewFromString(strings.TrimSpace(bounds[1]))
	if err != nil {
		return PriceRange{}, fmt.Errorf("domain.ParsePositionName: max price %q: %w", bounds[1], ErrInvalidArgument)
	}

	r := PriceRange{
		Label: strings.TrimSpace(segments[0]),
		Min:   minPrice,
		Max:   maxPrice,
	}
	if len(segments) > 2 {
		r.FeeLabel = strings.TrimSpace(strings.Join(segments[2:], nameSegmentSep))
	}
	return r, nil
}

// ReconciledPosition es una posición lista para mostrar: metadatos + tokens
// resueltos + precio spot + clasificación de rango. Se recalcula en cada
// pasada y nunca se muta.
type ReconciledPosition struct {
	Metadata     PositionMetadata
	Token0       Token
	Token1       Token
	Label        string
	FeeLabel     string
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
	CurrentPrice decimal.Decimal // precio de token1 en token0 según /price; 0 = desconocido
	IsInRange    bool
}

// PriceKnown devuelve false cuando el feed no devolvió un precio utilizable.
// Un precio 0 casi siempre clasifica la posición como fuera de rango.
func (p ReconciledPosition) PriceKnown() bool {
	return !p.CurrentPrice.IsZero()
}

// Pair devuelve "SYM0/SYM1".
func (p ReconciledPosition) Pair() string {
	return p.Token0.Symbol + "/" + p.Token1.Symbol
}

// Status devuelve la etiqueta de rango para presentación.
func (p ReconciledPosition) Status() string {
	switch {
	case !p.PriceKnown():
		return "UNKNOWN"
	case p.IsInRange:
		return "IN RANGE"
	default:
		return "OUT"
	}
}

// SortByID ordena las posiciones por id: numérico si ambos ids lo son,
// lexicográfico si no. El fan-in no garantiza orden, la presentación sí.
func SortByID(positions []ReconciledPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		return lessID(positions[i].Metadata.ID, positions[j].Metadata.ID)
	})
}

func lessID(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.LessThan(db)
	}
	return a < b
}
