package actions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alejandrodnm/titan/internal/adapters/starknet"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/tickmath"
	"github.com/holiman/uint256"
)

// WithdrawPosition retira liquidity de una posición reconciliada cobrando
// los fees. Pool key y bounds salen de los atributos de los metadatos.
func (s *Service) WithdrawPosition(ctx context.Context, session domain.Session, pos domain.ReconciledPosition, liquidity *uint256.Int) (Result, error) {
	if err := session.RequireConnected(); err != nil {
		return Result{}, fmt.Errorf("actions.WithdrawPosition: %w", err)
	}

	id, err := strconv.ParseUint(pos.Metadata.ID, 10, 64)
	if err != nil {
		return Result{}, fmt.Errorf("actions.WithdrawPosition: position id %q: %w", pos.Metadata.ID, domain.ErrInvalidArgument)
	}
	key, bounds, err := positionKey(pos)
	if err != nil {
		return Result{}, fmt.Errorf("actions.WithdrawPosition: position %s: %w", pos.Metadata.ID, err)
	}

	call, err := starknet.WithdrawCall(s.contracts.Positions, id, key, bounds, liquidity, true)
	if err != nil {
		return Result{}, fmt.Errorf("actions.WithdrawPosition: %w", err)
	}
	calls := []domain.Call{call}

	txID, err := s.execute(ctx, "withdraw", calls)
	if err != nil {
		return Result{}, fmt.Errorf("actions.WithdrawPosition: %w", err)
	}
	return Result{ID: txID, Calls: calls, Key: key, Lower: bounds.Lower, Upper: bounds.Upper}, nil
}

// positionKey reconstruye pool key y bounds desde los atributos.
func positionKey(pos domain.ReconciledPosition) (domain.PoolKey, starknet.Bounds, error) {
	attr := func(trait string) (string, error) {
		v, ok := pos.Metadata.Attr(trait)
		if !ok || v == "" {
			return "", fmt.Errorf("missing attribute %q: %w", trait, domain.ErrInvalidArgument)
		}
		return v, nil
	}

	fee, err := attr(domain.TraitFee)
	if err != nil {
		return domain.PoolKey{}, starknet.Bounds{}, err
	}
	spacing, err := attr(domain.TraitTickSpacing)
	if err != nil {
		return domain.PoolKey{}, starknet.Bounds{}, err
	}
	ext, _ := pos.Metadata.Attr(domain.TraitExtension)

	lowerRaw, err := attr(domain.TraitTickLower)
	if err != nil {
		return domain.PoolKey{}, starknet.Bounds{}, err
	}
	upperRaw, err := attr(domain.TraitTickUpper)
	if err != nil {
		return domain.PoolKey{}, starknet.Bounds{}, err
	}
	lower, err := tickmath.ParseTick(lowerRaw)
	if err != nil {
		return domain.PoolKey{}, starknet.Bounds{}, err
	}
	upper, err := tickmath.ParseTick(upperRaw)
	if err != nil {
		return domain.PoolKey{}, starknet.Bounds{}, err
	}

	candidate := domain.PoolCandidate{Fee: fee, TickSpacing: spacing, Extension: ext}
	return candidate.KeyFor(pos.Token0, pos.Token1), starknet.Bounds{Lower: lower, Upper: upper}, nil
}
