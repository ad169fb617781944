package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord resume una pasada de reconciliación publicada.
type RunRecord struct {
	RunID      string
	Owner      string
	Generation uint64
	Positions  int
	InRange    int
	Error      string
	RanAt      time.Time
}

// PositionState es el último estado persistido de una posición.
type PositionState struct {
	PositionID string
	Owner      string
	Pair       string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	LastPrice  decimal.Decimal
	Status     string
	FirstSeen  time.Time
	LastChange time.Time
}
