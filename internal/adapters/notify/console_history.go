package notify

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// HistoryInput agrupa lo que necesita PrintHistory.
type HistoryInput struct {
	Owner  string
	Runs   []domain.RunRecord     // más recientes primero
	States []domain.PositionState // último estado guardado por posición
}

// PrintHistory imprime las últimas pasadas y el estado persistido de cada
// posición.
func (c *Console) PrintHistory(in HistoryInput) {
	fmt.Fprintf(c.out, "\n── HISTORY %s ──\n", shortAddr(in.Owner))

	fmt.Fprintf(c.out, "\n  Runs (%d)\n", len(in.Runs))
	if len(in.Runs) == 0 {
		fmt.Fprintln(c.out, "  (none)")
	} else {
		failed := 0
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Time", "Run", "Gen", "Positions", "In range", "Error")
		for _, r := range in.Runs {
			if r.Error != "" {
				failed++
			}
			tbl.Append(
				r.RanAt.Local().Format("01-02 15:04:05"),
				shortID(r.RunID),
				fmt.Sprintf("%d", r.Generation),
				fmt.Sprintf("%d", r.Positions),
				fmt.Sprintf("%d", r.InRange),
				truncate(r.Error, 40),
			)
		}
		tbl.Render()
		if failed > 0 {
			fmt.Fprintf(c.out, "  %d of %d runs failed upstream\n", failed, len(in.Runs))
		}
	}

	fmt.Fprintf(c.out, "\n  Positions (%d)\n", len(in.States))
	if len(in.States) == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return
	}
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("ID", "Pair", "Min", "Max", "Last", "Status", "Since")
	for _, s := range in.States {
		tbl.Append(
			s.PositionID,
			s.Pair,
			formatPrice(s.MinPrice),
			formatPrice(s.MaxPrice),
			formatPrice(s.LastPrice),
			s.Status,
			since(c.now(), s.LastChange),
		)
	}
	tbl.Render()
}

// since devuelve cuánto hace de t, redondeado al minuto.
func since(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return now.Sub(t).Truncate(time.Minute).String()
}
