package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const (
	compactShown = 4
	pricePlaces  = 6
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return NewConsoleWriter(os.Stdout, table)
}

// NewConsoleWriter crea un notificador sobre w. Los tests lo usan con un
// bytes.Buffer.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// Notify imprime el snapshot en el modo configurado.
func (c *Console) Notify(_ context.Context, snap domain.Snapshot) error {
	now := c.now().Format("15:04:05")

	if snap.Err != nil {
		fmt.Fprintf(c.out, "[%s] refresh failed for %s: %v\n", now, shortAddr(snap.Owner), snap.Err)
		if len(snap.Positions) > 0 {
			fmt.Fprintf(c.out, "[%s] showing previous result (%s)\n", now, snap.UpdatedAt.Format("15:04:05"))
		}
	}
	if len(snap.Positions) == 0 {
		if snap.Err == nil {
			fmt.Fprintf(c.out, "[%s] no positions found for %s\n", now, shortAddr(snap.Owner))
		}
		return nil
	}

	if c.table {
		c.printFull(snap)
	} else {
		c.printCompact(snap)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(snap domain.Snapshot) {
	now := c.now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s → %d positions, in range: %d", now, shortAddr(snap.Owner), len(snap.Positions), snap.InRange())

	for i, p := range snap.Positions {
		if i >= compactShown {
			fmt.Fprintf(&sb, " | +%d more", len(snap.Positions)-compactShown)
			break
		}
		fmt.Fprintf(&sb, " | #%s %s %s", p.Metadata.ID, p.Pair(), p.Status())
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la cabecera y la tabla de posiciones.
func (c *Console) printFull(snap domain.Snapshot) {
	now := c.now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %s: %d positions, %d in range (run %s, gen %d)\n",
		now, shortAddr(snap.Owner), len(snap.Positions), snap.InRange(), shortID(snap.RunID), snap.Generation)

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Pair", "Label", "Min", "Max", "Current", "Fee", "Status")
	for _, p := range snap.Positions {
		current := "?"
		if p.PriceKnown() {
			current = formatPrice(p.CurrentPrice)
		}
		table.Append(
			p.Metadata.ID,
			p.Pair(),
			truncate(p.Label, 20),
			formatPrice(p.MinPrice),
			formatPrice(p.MaxPrice),
			current,
			p.FeeLabel,
			p.Status(),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Current = price of token1 quoted in token0 | UNKNOWN = price feed returned nothing usable")
}

// formatPrice muestra hasta pricePlaces decimales sin ceros de relleno.
func formatPrice(d decimal.Decimal) string {
	return d.Round(pricePlaces).String()
}

// shortAddr abrevia una dirección a 0x1234…abcd.
func shortAddr(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate recorta s a maxLen runas con "..." al final.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
