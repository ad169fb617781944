package notify

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/tickmath"
	"github.com/olekukonko/tablewriter"
)

// PrintPools imprime los pools existentes de un par.
func (c *Console) PrintPools(token0, token1 domain.Token, pools []domain.PoolCandidate) {
	fmt.Fprintf(c.out, "\n%s/%s: %d pools\n", token0.Symbol, token1.Symbol, len(pools))
	if len(pools) == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Fee %", "Tick spacing", "Spacing %", "Extension")
	for i, p := range pools {
		fee := "?"
		if v, err := tickmath.ParseUint(p.Fee); err == nil {
			fee = tickmath.FeeFromFixedPoint128(v).String()
		}
		spacing := "?"
		if v, err := tickmath.TickSpacingFromEncoded(p.TickSpacing); err == nil {
			spacing = v.String()
		}
		ext := p.Extension
		if ext == "" {
			ext = "0x0"
		}
		table.Append(fmt.Sprintf("%d", i+1), fee, p.TickSpacing, spacing, shortAddr(ext))
	}
	table.Render()
}

// PrintCalls imprime una multicall exportada.
func (c *Console) PrintCalls(id string, calls []domain.Call) {
	fmt.Fprintf(c.out, "\nmulticall %s (%d calls)\n", id, len(calls))
	for i, call := range calls {
		fmt.Fprintf(c.out, "  %d. %s.%s(%s)\n", i+1, shortAddr(call.ContractAddress), call.Entrypoint, strings.Join(call.Calldata, ", "))
	}
}

// PrintAccount imprime el registro de usuario.
func (c *Console) PrintAccount(acc domain.UserAccount) {
	tsa := "not deployed"
	if acc.HasTSA() {
		tsa = acc.TSA
	}
	fmt.Fprintf(c.out, "  Wallet:     %s\n", acc.Address)
	fmt.Fprintf(c.out, "  TSA:        %s\n", tsa)
	fmt.Fprintf(c.out, "  Registered: %s\n", acc.CreatedAt.Format("2006-01-02 15:04"))
}
