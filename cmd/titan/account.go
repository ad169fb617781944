package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/titan/config"
	"github.com/alejandrodnm/titan/internal/actions"
	"github.com/alejandrodnm/titan/internal/adapters/ekubo"
	"github.com/alejandrodnm/titan/internal/adapters/notify"
	"github.com/alejandrodnm/titan/internal/adapters/starknet"
	"github.com/alejandrodnm/titan/internal/adapters/storage"
	"github.com/alejandrodnm/titan/internal/domain"
)

const historyRuns = 20

// newActions arma el servicio de acciones. Las multicalls se exportan a
// wallet.export_path (append) o a stdout; con starknet.rpc_url se habilitan
// las verificaciones on-chain.
func newActions(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage, client *ekubo.Client) (*actions.Service, func()) {
	var closers []func()

	var out io.Writer = os.Stdout
	if cfg.Wallet.ExportPath != "" {
		f, err := os.OpenFile(cfg.Wallet.ExportPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			slog.Warn("cannot open export file, writing multicalls to stdout", "path", cfg.Wallet.ExportPath, "err", err)
		} else {
			out = f
			closers = append(closers, func() { _ = f.Close() })
		}
	}

	var opts []actions.Option
	if cfg.Starknet.RPCURL != "" {
		rpc, err := starknet.DialRPC(ctx, cfg.Starknet.RPCURL, starknet.WithPollInterval(cfg.PollInterval()))
		if err != nil {
			slog.Warn("starknet rpc unavailable, on-chain checks disabled", "url", cfg.Starknet.RPCURL, "err", err)
		} else {
			opts = append(opts, actions.WithChainReader(rpc), actions.WithTxWatcher(rpc))
			closers = append(closers, rpc.Close)
		}
	}

	svc := actions.New(
		actions.Contracts{Positions: cfg.Contracts.Positions, NFT: cfg.Contracts.NFT},
		store, client, starknet.NewExporter(out), opts...,
	)
	return svc, func() {
		for _, c := range closers {
			c()
		}
	}
}

func runRegister(ctx context.Context, act *actions.Service, console *notify.Console, session domain.Session) int {
	acc, err := act.Register(ctx, session)
	if err != nil {
		slog.Error("register failed", "err", err)
		return 1
	}
	console.PrintAccount(acc)
	return 0
}

func runAccount(ctx context.Context, act *actions.Service, console *notify.Console, session domain.Session) int {
	acc, err := act.Account(ctx, session)
	if err != nil {
		slog.Error("account lookup failed", "err", err)
		return 1
	}
	console.PrintAccount(acc)
	return 0
}

func runSetTSA(ctx context.Context, act *actions.Service, console *notify.Console, session domain.Session, tsa, txHash string, wait time.Duration) int {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	acc, err := act.RecordDeployment(ctx, session, tsa, txHash)
	if err != nil {
		slog.Error("recording deployment failed", "tsa", tsa, "tx", txHash, "err", err)
		return 1
	}
	console.PrintAccount(acc)
	return 0
}

func runImport(ctx context.Context, act *actions.Service, console *notify.Console, session domain.Session, id string) int {
	res, err := act.ImportPosition(ctx, session, id)
	if err != nil {
		slog.Error("import failed", "position_id", id, "err", err)
		return 1
	}
	console.PrintCalls(res.ID, res.Calls)
	return 0
}

func runHistory(ctx context.Context, store *storage.SQLiteStorage, console *notify.Console, owner string) int {
	if owner == "" {
		slog.Error("no owner: pass -owner or set wallet.address")
		return 1
	}
	runs, err := store.RecentRuns(ctx, owner, historyRuns)
	if err != nil {
		slog.Error("history failed", "err", err)
		return 1
	}
	states, err := store.PositionStates(ctx, owner)
	if err != nil {
		slog.Error("history failed", "err", err)
		return 1
	}
	console.PrintHistory(notify.HistoryInput{Owner: owner, Runs: runs, States: states})
	fmt.Println()
	return 0
}
