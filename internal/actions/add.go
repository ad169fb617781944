package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/titan/internal/adapters/starknet"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/tickmath"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// AddRequest describe una posición nueva. Los precios son de token1 en token0.
type AddRequest struct {
	Token0     domain.Token
	Token1     domain.Token
	Pool       domain.PoolCandidate
	Amount0    decimal.Decimal
	Amount1    decimal.Decimal
	LowerPrice decimal.Decimal
	UpperPrice decimal.Decimal
}

// Result es una multicall construida y entregada.
type Result struct {
	ID    string
	Calls []domain.Call
	Key   domain.PoolKey
	Lower int64
	Upper int64
}

// DefaultPool arma un candidato con un fee tier estándar (partes por millón)
// y su tick spacing por defecto, para pares sin pools listados.
func DefaultPool(feeTier int) (domain.PoolCandidate, error) {
	spacing, ok := domain.DefaultTickSpacings[feeTier]
	if !ok {
		return domain.PoolCandidate{}, fmt.Errorf("actions.DefaultPool: unknown fee tier %d: %w", feeTier, domain.ErrInvalidArgument)
	}
	return domain.PoolCandidate{
		Fee:         tickmath.FeeToFixedPoint128(uint64(feeTier)).Dec(),
		TickSpacing: fmt.Sprintf("%d", spacing),
		Extension:   "0x0",
	}, nil
}

// AddPosition convierte el rango de precios a ticks alineados al pool y
// entrega la multicall transfer0, transfer1, mint_and_deposit, clear0,
// clear1.
func (s *Service) AddPosition(ctx context.Context, session domain.Session, req AddRequest) (Result, error) {
	if err := session.RequireConnected(); err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: %w", err)
	}

	req, err := orderTokens(req)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: %w", err)
	}

	lower, err := tickmath.PriceToTick(req.LowerPrice)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: lower price: %w", err)
	}
	upper, err := tickmath.PriceToTick(req.UpperPrice)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: upper price: %w", err)
	}
	if lower > upper {
		return Result{}, fmt.Errorf("actions.AddPosition: tick range [%d, %d] inverted: %w", lower, upper, domain.ErrInvalidArgument)
	}

	spacing, err := tickmath.ParseTick(req.Pool.TickSpacing)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: tick spacing: %w", err)
	}
	lower, upper = tickmath.AlignTicks(lower, upper, spacing)

	amount0, err := starknet.Amount(req.Amount0, req.Token0.Decimals)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: amount0: %w", err)
	}
	amount1, err := starknet.Amount(req.Amount1, req.Token1.Decimals)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: amount1: %w", err)
	}

	key := req.Pool.KeyFor(req.Token0, req.Token1)
	calls, err := s.addCalls(key, starknet.Bounds{Lower: lower, Upper: upper}, amount0, amount1)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: %w", err)
	}

	id, err := s.execute(ctx, "add", calls)
	if err != nil {
		return Result{}, fmt.Errorf("actions.AddPosition: %w", err)
	}
	slog.Debug("position add built",
		"pair", req.Token0.Symbol+"/"+req.Token1.Symbol,
		"tick_lower", lower,
		"tick_upper", upper,
		"fee_pct", feePct(key.Fee),
	)
	return Result{ID: id, Calls: calls, Key: key, Lower: lower, Upper: upper}, nil
}

func (s *Service) addCalls(key domain.PoolKey, b starknet.Bounds, amount0, amount1 *uint256.Int) ([]domain.Call, error) {
	transfer0, err := starknet.TransferCall(key.Token0, s.contracts.Positions, amount0)
	if err != nil {
		return nil, err
	}
	transfer1, err := starknet.TransferCall(key.Token1, s.contracts.Positions, amount1)
	if err != nil {
		return nil, err
	}
	mint, err := starknet.MintAndDepositCall(s.contracts.Positions, key, b, new(uint256.Int))
	if err != nil {
		return nil, err
	}
	clear0, err := starknet.ClearCall(s.contracts.Positions, key.Token0)
	if err != nil {
		return nil, err
	}
	clear1, err := starknet.ClearCall(s.contracts.Positions, key.Token1)
	if err != nil {
		return nil, err
	}
	return []domain.Call{transfer0, transfer1, mint, clear0, clear1}, nil
}

// orderTokens deja token0 < token1 como exige el pool key. Si vienen al
// revés, intercambia tokens y montos e invierte el rango de precios.
func orderTokens(req AddRequest) (AddRequest, error) {
	a, err := starknet.ParseFelt(req.Token0.Address)
	if err != nil {
		return req, fmt.Errorf("token0: %w", err)
	}
	b, err := starknet.ParseFelt(req.Token1.Address)
	if err != nil {
		return req, fmt.Errorf("token1: %w", err)
	}
	if a.Eq(b) {
		return req, fmt.Errorf("token0 and token1 are the same token: %w", domain.ErrInvalidArgument)
	}
	if a.Lt(b) {
		return req, nil
	}
	if !req.LowerPrice.IsPositive() || !req.UpperPrice.IsPositive() {
		return req, fmt.Errorf("price range must be positive: %w", domain.ErrInvalidArgument)
	}

	one := decimal.NewFromInt(1)
	swapped := AddRequest{
		Token0:     req.Token1,
		Token1:     req.Token0,
		Pool:       req.Pool,
		Amount0:    req.Amount1,
		Amount1:    req.Amount0,
		LowerPrice: one.DivRound(req.UpperPrice, 36),
		UpperPrice: one.DivRound(req.LowerPrice, 36),
	}
	slog.Debug("tokens reordered for pool key", "token0", swapped.Token0.Symbol, "token1", swapped.Token1.Symbol)
	return swapped, nil
}

// feePct devuelve el fee del pool key como porcentaje, o "?" si no parsea.
func feePct(fee string) string {
	v, err := tickmath.ParseUint(fee)
	if err != nil {
		return "?"
	}
	return tickmath.FeeFromFixedPoint128(v).String()
}
