package actions

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/titan/internal/adapters/starknet"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/tickmath"
)

// ImportPosition transfiere el NFT de una posición de la wallet a su TSA.
// Requiere la TSA desplegada; con un ChainReader verifica además que la
// wallet sea la dueña del NFT.
func (s *Service) ImportPosition(ctx context.Context, session domain.Session, positionID string) (Result, error) {
	acc, err := s.requireTSA(ctx, session)
	if err != nil {
		return Result{}, fmt.Errorf("actions.ImportPosition: %w", err)
	}

	tokenID, err := tickmath.ParseUint(positionID)
	if err != nil {
		return Result{}, fmt.Errorf("actions.ImportPosition: position id: %w", err)
	}

	if s.chain != nil {
		owner, err := s.chain.OwnerOf(ctx, s.contracts.NFT, tokenID)
		if err != nil {
			return Result{}, fmt.Errorf("actions.ImportPosition: %w", err)
		}
		wallet, err := starknet.Address(session.Address)
		if err != nil {
			return Result{}, fmt.Errorf("actions.ImportPosition: wallet: %w", err)
		}
		if owner != wallet {
			return Result{}, fmt.Errorf("actions.ImportPosition: position %s owned by %s: %w", positionID, owner, domain.ErrPreconditionNotMet)
		}
	}

	call, err := starknet.TransferFromCall(s.contracts.NFT, session.Address, acc.TSA, tokenID)
	if err != nil {
		return Result{}, fmt.Errorf("actions.ImportPosition: %w", err)
	}
	calls := []domain.Call{call}

	id, err := s.execute(ctx, "import", calls)
	if err != nil {
		return Result{}, fmt.Errorf("actions.ImportPosition: %w", err)
	}
	return Result{ID: id, Calls: calls}, nil
}
