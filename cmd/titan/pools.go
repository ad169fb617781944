package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/titan/internal/actions"
	"github.com/alejandrodnm/titan/internal/adapters/notify"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/reconciler"
	"github.com/alejandrodnm/titan/internal/tickmath"
	"github.com/shopspring/decimal"
)

type addFlags struct {
	pair         string
	lower, upper string
	amount0      string
	amount1      string
	feeTier      int
	pool         int
}

func runTick(price string) int {
	p, err := decimal.NewFromString(price)
	if err != nil {
		slog.Error("invalid price", "price", price, "err", err)
		return 1
	}
	tick, err := tickmath.PriceToTick(p)
	if err != nil {
		slog.Error("tick conversion failed", "price", price, "err", err)
		return 1
	}
	fmt.Printf("price %s → tick %d (back: %s)\n", p, tick, tickmath.TickToPrice(tick).Round(12))
	return 0
}

// resolvePair busca "SYM0/SYM1" (símbolos o direcciones) en el directorio.
func resolvePair(ctx context.Context, runner *reconciler.Runner, pair string) (domain.Token, domain.Token, error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return domain.Token{}, domain.Token{}, fmt.Errorf("pair %q must be TOKEN0/TOKEN1: %w", pair, domain.ErrInvalidArgument)
	}
	dir, err := runner.LoadTokens(ctx)
	if dir == nil {
		return domain.Token{}, domain.Token{}, err
	}
	t0, ok := dir.Lookup(strings.TrimSpace(parts[0]))
	if !ok {
		return domain.Token{}, domain.Token{}, fmt.Errorf("unknown token %q: %w", parts[0], domain.ErrInvalidArgument)
	}
	t1, ok := dir.Lookup(strings.TrimSpace(parts[1]))
	if !ok {
		return domain.Token{}, domain.Token{}, fmt.Errorf("unknown token %q: %w", parts[1], domain.ErrInvalidArgument)
	}
	return t0, t1, nil
}

func runPools(ctx context.Context, runner *reconciler.Runner, act *actions.Service, console *notify.Console, pair string) int {
	t0, t1, err := resolvePair(ctx, runner, pair)
	if err != nil {
		slog.Error("pools failed", "pair", pair, "err", err)
		return 1
	}
	pools, err := act.Pools(ctx, t0, t1)
	if err != nil {
		slog.Error("pools failed", "pair", pair, "err", err)
		return 1
	}
	console.PrintPools(t0, t1, pools)
	return 0
}

func runAdd(ctx context.Context, runner *reconciler.Runner, act *actions.Service, console *notify.Console, session domain.Session, f addFlags) int {
	t0, t1, err := resolvePair(ctx, runner, f.pair)
	if err != nil {
		slog.Error("add failed", "pair", f.pair, "err", err)
		return 1
	}

	req := actions.AddRequest{Token0: t0, Token1: t1}
	for _, v := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"lower", f.lower, &req.LowerPrice},
		{"upper", f.upper, &req.UpperPrice},
		{"amount0", f.amount0, &req.Amount0},
		{"amount1", f.amount1, &req.Amount1},
	} {
		d, err := decimal.NewFromString(v.raw)
		if err != nil {
			slog.Error("add failed: invalid number", "flag", v.name, "value", v.raw)
			return 1
		}
		*v.dst = d
	}

	req.Pool, err = pickPool(ctx, act, t0, t1, f)
	if err != nil {
		slog.Error("add failed", "pair", f.pair, "err", err)
		return 1
	}

	res, err := act.AddPosition(ctx, session, req)
	if err != nil {
		slog.Error("add failed", "pair", f.pair, "err", err)
		return 1
	}
	fmt.Printf("ticks [%d, %d]\n", res.Lower, res.Upper)
	console.PrintCalls(res.ID, res.Calls)
	return 0
}

// pickPool usa el fee tier pedido o, si no hay, el pool listado número f.pool.
func pickPool(ctx context.Context, act *actions.Service, t0, t1 domain.Token, f addFlags) (domain.PoolCandidate, error) {
	if f.feeTier > 0 {
		return actions.DefaultPool(f.feeTier)
	}
	pools, err := act.Pools(ctx, t0, t1)
	if err != nil {
		return domain.PoolCandidate{}, err
	}
	if f.pool < 1 || f.pool > len(pools) {
		return domain.PoolCandidate{}, fmt.Errorf("pool %d not found (%d listed), pass -fee-tier for a new pool: %w", f.pool, len(pools), domain.ErrInvalidArgument)
	}
	return pools[f.pool-1], nil
}

func runWithdraw(ctx context.Context, runner *reconciler.Runner, pipeline *reconciler.Pipeline, act *actions.Service, console *notify.Console, session domain.Session, id, liquidity string) int {
	liq, err := tickmath.ParseUint(liquidity)
	if err != nil {
		slog.Error("withdraw failed: invalid -liquidity", "value", liquidity, "err", err)
		return 1
	}
	dir, err := runner.LoadTokens(ctx)
	if dir == nil {
		slog.Error("withdraw failed", "err", err)
		return 1
	}
	pos, err := pipeline.Position(ctx, id, dir)
	if err != nil {
		slog.Error("withdraw failed", "position_id", id, "err", err)
		return 1
	}
	res, err := act.WithdrawPosition(ctx, session, pos, liq)
	if err != nil {
		slog.Error("withdraw failed", "position_id", id, "err", err)
		return 1
	}
	console.PrintCalls(res.ID, res.Calls)
	return 0
}

func runPosition(ctx context.Context, runner *reconciler.Runner, pipeline *reconciler.Pipeline, console *notify.Console, id string) int {
	dir, err := runner.LoadTokens(ctx)
	if dir == nil {
		slog.Error("position failed", "err", err)
		return 1
	}
	pos, err := pipeline.Position(ctx, id, dir)
	if err != nil {
		slog.Error("position failed", "position_id", id, "err", err)
		return 1
	}
	dirn := reconciler.DirectionUnknown
	if rng, err := domain.ParsePositionName(pos.Metadata.Name); err == nil {
		dirn = reconciler.QuoteDirection(pos.Metadata, pos.Token0, pos.Token1, rng)
	}
	_ = console.Notify(ctx, domain.Snapshot{Positions: []domain.ReconciledPosition{pos}, UpdatedAt: time.Now()})
	fmt.Printf("  quote direction: %s\n", dirn)
	return 0
}
