package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/titan/config"
	"github.com/alejandrodnm/titan/internal/adapters/ekubo"
	"github.com/alejandrodnm/titan/internal/adapters/notify"
	"github.com/alejandrodnm/titan/internal/adapters/storage"
	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/metrics"
	"github.com/alejandrodnm/titan/internal/reconciler"
)

func main() {
	os.Exit(run())
}

// run devuelve el exit code; los defers corren antes de salir.
func run() int {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	owner := flag.String("owner", "", "owner address to reconcile (default: wallet.address)")
	once := flag.Bool("once", false, "run one reconciliation pass and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	history := flag.Bool("history", false, "print stored runs and position states and exit")
	positionID := flag.String("position", "", "reconcile a single position by id and exit")

	// Cuenta
	register := flag.Bool("register", false, "register the connected wallet and exit")
	account := flag.Bool("account", false, "print the wallet's account record and exit")
	setTSA := flag.String("set-tsa", "", "record the deployed TSA address for the wallet")
	txHash := flag.String("tx", "", "deployment tx hash to wait for (with -set-tsa)")
	importID := flag.String("import", "", "transfer position NFT <id> from the wallet to its TSA")

	// Pools y posiciones
	pools := flag.String("pools", "", "list pools for a pair, e.g. ETH/USDC")
	add := flag.String("add", "", "add a position on a pair, e.g. ETH/USDC")
	lower := flag.String("lower", "", "lower price (token1 in token0) for -add")
	upper := flag.String("upper", "", "upper price (token1 in token0) for -add")
	amount0 := flag.String("amount0", "0", "token0 amount for -add")
	amount1 := flag.String("amount1", "0", "token1 amount for -add")
	feeTier := flag.Int("fee-tier", 0, "fee tier in ppm when the pair has no listed pool (100|500|3000|10000)")
	poolIndex := flag.Int("pool", 1, "pool number from -pools to use with -add")
	withdraw := flag.String("withdraw", "", "withdraw liquidity from position <id>")
	liquidity := flag.String("liquidity", "", "liquidity to withdraw (u128)")
	tick := flag.String("tick", "", "print the tick for a price and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		return 1
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *tick != "" {
		return runTick(*tick)
	}

	if *owner == "" {
		*owner = cfg.Wallet.Address
	}
	session := domain.Session{Address: cfg.Wallet.Address, Connected: cfg.Wallet.Address != ""}

	slog.Info("titan starting",
		"config", *configPath,
		"api", cfg.API.EkuboBase,
		"owner", *owner,
		"interval", cfg.RefreshInterval(),
		"once", *once,
	)

	client := ekubo.NewClient(cfg.API.EkuboBase,
		ekubo.WithRetries(cfg.API.Retries),
		ekubo.WithRetryWait(cfg.RetryWait()),
		ekubo.WithTimeout(cfg.HTTPTimeout()),
		ekubo.WithFetchTimeout(cfg.FetchTimeout()),
		ekubo.WithRateLimit(float64(cfg.API.RateLimitPerSec)),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		return 1
	}
	defer store.Close()

	console := notify.NewConsole(*table)

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	rec := reconciler.New(client, cfg.Reconciler.Concurrency, m)
	pipeline := reconciler.NewPipeline(client, rec)
	runner := reconciler.NewRunner(pipeline, client, notify.Multi{console, store}, m)

	act, closeActions := newActions(ctx, cfg, store, client)
	defer closeActions()

	switch {
	case *history:
		return runHistory(ctx, store, console, *owner)
	case *register:
		return runRegister(ctx, act, console, session)
	case *account:
		return runAccount(ctx, act, console, session)
	case *setTSA != "":
		return runSetTSA(ctx, act, console, session, *setTSA, *txHash, cfg.WaitTimeout())
	case *importID != "":
		return runImport(ctx, act, console, session, *importID)
	case *pools != "":
		return runPools(ctx, runner, act, console, *pools)
	case *add != "":
		return runAdd(ctx, runner, act, console, session, addFlags{
			pair: *add, lower: *lower, upper: *upper,
			amount0: *amount0, amount1: *amount1,
			feeTier: *feeTier, pool: *poolIndex,
		})
	case *withdraw != "":
		return runWithdraw(ctx, runner, pipeline, act, console, session, *withdraw, *liquidity)
	case *positionID != "":
		return runPosition(ctx, runner, pipeline, console, *positionID)
	}

	if *owner == "" {
		slog.Error("no owner: pass -owner or set wallet.address / TITAN_WALLET_ADDRESS")
		return 1
	}

	interval := cfg.RefreshInterval()
	if *once {
		interval = 0
	}
	if err := runner.Watch(ctx, *owner, interval); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("reconciliation failed", "err", err)
		return 1
	}

	slog.Info("titan stopped cleanly")
	return 0
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
