package domain

import "time"

// Snapshot es el resultado publicado de una pasada de reconciliación.
// Generation crece con cada trigger; una pasada superada nunca se publica.
type Snapshot struct {
	Owner      string
	RunID      string
	Generation uint64
	Positions  []ReconciledPosition
	Err        error // último error de upstream; Positions conserva la pasada anterior
	UpdatedAt  time.Time
}

// InRange cuenta las posiciones dentro de rango.
func (s Snapshot) InRange() int {
	n := 0
	for _, p := range s.Positions {
		if p.IsInRange {
			n++
		}
	}
	return n
}
