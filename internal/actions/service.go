// Package actions arma las operaciones de escritura sobre posiciones (add,
// withdraw, import) y mantiene el registro de usuario. No firma nada: cada
// operación produce una multicall que entrega a un ports.CallExecutor.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/titan/internal/adapters/starknet"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/ports"
)

// Contracts son las direcciones de los contratos de Ekubo.
type Contracts struct {
	Positions string
	NFT       string
}

// Service coordina sesión, registro de usuario y construcción de calls.
type Service struct {
	contracts Contracts
	accounts  ports.AccountStore
	pools     ports.PoolProvider
	executor  ports.CallExecutor
	chain     ports.ChainReader // opcional
	txs       ports.TxWatcher   // opcional
}

// Option configura un Service.
type Option func(*Service)

// WithChainReader habilita las verificaciones on-chain (TSA desplegada,
// dueño del NFT).
func WithChainReader(r ports.ChainReader) Option {
	return func(s *Service) { s.chain = r }
}

// WithTxWatcher habilita la espera del receipt del deploy.
func WithTxWatcher(w ports.TxWatcher) Option {
	return func(s *Service) { s.txs = w }
}

// New crea el servicio con sus dependencias.
func New(contracts Contracts, accounts ports.AccountStore, pools ports.PoolProvider, executor ports.CallExecutor, opts ...Option) *Service {
	s := &Service{
		contracts: contracts,
		accounts:  accounts,
		pools:     pools,
		executor:  executor,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register crea el registro del usuario la primera vez que conecta su wallet.
func (s *Service) Register(ctx context.Context, session domain.Session) (domain.UserAccount, error) {
	if err := session.RequireConnected(); err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.Register: %w", err)
	}
	if err := s.accounts.UpsertUser(ctx, session.Address); err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.Register: %w", err)
	}
	acc, err := s.accounts.GetUser(ctx, session.Address)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.Register: %w", err)
	}
	slog.Info("user registered", "wallet", acc.Address, "has_tsa", acc.HasTSA())
	return acc, nil
}

// Account devuelve el registro de la wallet conectada.
func (s *Service) Account(ctx context.Context, session domain.Session) (domain.UserAccount, error) {
	if err := session.RequireConnected(); err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.Account: %w", err)
	}
	acc, err := s.accounts.GetUser(ctx, session.Address)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.Account: %w", err)
	}
	return acc, nil
}

// RecordDeployment guarda la TSA del usuario una vez que el deploy confirma.
// Con txHash y un TxWatcher espera el receipt; con un ChainReader verifica
// que haya un contrato en la dirección.
func (s *Service) RecordDeployment(ctx context.Context, session domain.Session, tsa, txHash string) (domain.UserAccount, error) {
	if err := session.RequireConnected(); err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: %w", err)
	}
	addr, err := starknet.Address(tsa)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: tsa: %w", err)
	}

	if txHash != "" && s.txs != nil {
		receipt, err := s.txs.WaitForTransaction(ctx, txHash)
		if err != nil {
			return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: %w", err)
		}
		if !receipt.Succeeded() {
			return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: deploy tx %s %s: %s: %w",
				txHash, receipt.ExecutionStatus, receipt.RevertReason, domain.ErrPreconditionNotMet)
		}
	}
	if s.chain != nil {
		deployed, err := s.chain.IsDeployed(ctx, addr)
		if err != nil {
			return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: %w", err)
		}
		if !deployed {
			return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: no contract at %s: %w", addr, domain.ErrPreconditionNotMet)
		}
	}

	if err := s.accounts.UpsertUser(ctx, session.Address); err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: %w", err)
	}
	if err := s.accounts.SetTSA(ctx, session.Address, addr); err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: %w", err)
	}
	acc, err := s.accounts.GetUser(ctx, session.Address)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("actions.RecordDeployment: %w", err)
	}
	slog.Info("tsa recorded", "wallet", acc.Address, "tsa", acc.TSA)
	return acc, nil
}

// Pools lista los pools existentes de un par.
func (s *Service) Pools(ctx context.Context, token0, token1 domain.Token) ([]domain.PoolCandidate, error) {
	pools, err := s.pools.FetchPoolCandidates(ctx, token0.Address, token1.Address)
	if err != nil {
		return nil, fmt.Errorf("actions.Pools: %w", err)
	}
	return pools, nil
}

// requireTSA devuelve la cuenta si la wallet está conectada y tiene TSA.
func (s *Service) requireTSA(ctx context.Context, session domain.Session) (domain.UserAccount, error) {
	if err := session.RequireConnected(); err != nil {
		return domain.UserAccount{}, err
	}
	acc, err := s.accounts.GetUser(ctx, session.Address)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.UserAccount{}, fmt.Errorf("%w: %w", domain.ErrPreconditionNotMet, err)
	}
	if err != nil {
		return domain.UserAccount{}, err
	}
	if !acc.HasTSA() {
		return domain.UserAccount{}, fmt.Errorf("no deployed account for %s: %w", acc.Address, domain.ErrPreconditionNotMet)
	}
	return acc, nil
}

// execute entrega la multicall al executor.
func (s *Service) execute(ctx context.Context, op string, calls []domain.Call) (string, error) {
	id, err := s.executor.Execute(ctx, calls)
	if err != nil {
		return "", fmt.Errorf("execute %s: %w", op, err)
	}
	slog.Info("multicall submitted", "op", op, "id", id, "calls", len(calls))
	return id, nil
}
