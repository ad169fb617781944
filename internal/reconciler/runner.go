package reconciler

// runner.go: disparo de pasadas y supresión de pasadas obsoletas.
//
// Cada Trigger incrementa la generación y cancela el contexto de la pasada
// anterior. Al terminar, una pasada solo publica si su generación sigue
// siendo la vigente; si no, su resultado se descarta aunque haya llegado
// completo. El check y la publicación ocurren bajo el mismo lock.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/metrics"
	"github.com/alejandrodnm/titan/internal/ports"
	"github.com/google/uuid"
)

// ErrSuperseded indica que una pasada más nueva reemplazó a esta.
var ErrSuperseded = errors.New("run superseded")

// Source produce las posiciones de un owner. *Pipeline la implementa.
type Source interface {
	Run(ctx context.Context, owner string, dir *domain.TokenDirectory) ([]domain.ReconciledPosition, error)
}

// Run es el handle de una pasada disparada.
type Run struct {
	ID         string
	Owner      string
	Generation uint64

	done chan struct{}
	snap domain.Snapshot
	err  error
}

// Done se cierra cuando la pasada terminó, publicada o descartada.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait bloquea hasta que la pasada termine. Devuelve ErrSuperseded si fue
// reemplazada, o el error de upstream si falló.
func (r *Run) Wait() (domain.Snapshot, error) {
	<-r.done
	return r.snap, r.err
}

// Runner coordina las pasadas y guarda el último snapshot publicado.
type Runner struct {
	source   Source
	tokens   ports.TokenProvider
	notifier ports.Notifier
	metrics  *metrics.Metrics

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest domain.Snapshot
	dir    *domain.TokenDirectory
}

// NewRunner crea un Runner. tokens, notifier y m pueden ser nil.
func NewRunner(source Source, tokens ports.TokenProvider, notifier ports.Notifier, m *metrics.Metrics) *Runner {
	return &Runner{
		source:   source,
		tokens:   tokens,
		notifier: notifier,
		metrics:  m,
	}
}

// Trigger dispara una pasada para owner con el directorio dado y cancela la
// anterior si seguía en vuelo.
func (r *Runner) Trigger(ctx context.Context, owner string, dir *domain.TokenDirectory) *Run {
	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	run := &Run{
		ID:         uuid.NewString(),
		Owner:      owner,
		Generation: r.gen,
		done:       make(chan struct{}),
	}
	r.cancel = cancel
	r.mu.Unlock()

	go r.execute(runCtx, cancel, run, dir)
	return run
}

// Latest devuelve el último snapshot publicado.
func (r *Runner) Latest() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Directory devuelve el último directorio de tokens cargado.
func (r *Runner) Directory() *domain.TokenDirectory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dir
}

func (r *Runner) execute(ctx context.Context, cancel context.CancelFunc, run *Run, dir *domain.TokenDirectory) {
	defer close(run.done)
	defer cancel()

	log := slog.With("owner", run.Owner, "run_id", run.ID, "generation", run.Generation)
	log.Debug("reconciliation run started")

	start := time.Now()
	positions, err := r.source.Run(ctx, run.Owner, dir)
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()

	if run.Generation != r.gen {
		r.metrics.ObserveRun(metrics.ResultStale, elapsed)
		log.Info("discarding stale run", "current_generation", r.gen)
		run.err = ErrSuperseded
		return
	}

	if err != nil && ctx.Err() != nil {
		// El caller canceló sin que otra pasada la reemplace: no hay nada
		// nuevo que publicar.
		run.err = err
		return
	}

	snap := domain.Snapshot{
		Owner:      run.Owner,
		RunID:      run.ID,
		Generation: run.Generation,
		UpdatedAt:  time.Now(),
	}
	if err != nil {
		r.metrics.ObserveRun(metrics.ResultUpstreamError, elapsed)
		log.Error("reconciliation run failed", "err", err)
		snap.Err = err
		if r.latest.Owner == run.Owner {
			snap.Positions = r.latest.Positions
		}
		run.err = err
	} else {
		r.metrics.ObserveRun(metrics.ResultOK, elapsed)
		snap.Positions = positions
		r.metrics.ObservePublished(snap.InRange(), snap.UpdatedAt)
		log.Info("reconciliation run published",
			"positions", len(positions),
			"in_range", snap.InRange(),
			"duration", elapsed.Round(time.Millisecond),
		)
	}

	r.latest = snap
	run.snap = snap
	r.notify(ctx, snap)
}

// notify se llama con r.mu tomado para que las notificaciones salgan en el
// mismo orden que las publicaciones.
func (r *Runner) notify(ctx context.Context, snap domain.Snapshot) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(context.WithoutCancel(ctx), snap); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

// LoadTokens recarga el directorio de tokens. Si falla, devuelve el
// directorio anterior (que puede ser nil) junto con el error.
func (r *Runner) LoadTokens(ctx context.Context) (*domain.TokenDirectory, error) {
	if r.tokens == nil {
		return r.Directory(), fmt.Errorf("reconciler.LoadTokens: no token provider: %w", domain.ErrUpstreamUnavailable)
	}

	tokens, err := r.tokens.FetchTokens(ctx)
	if err != nil {
		return r.Directory(), fmt.Errorf("reconciler.LoadTokens: %w", err)
	}

	dir := domain.NewTokenDirectory(tokens)
	r.mu.Lock()
	r.dir = dir
	r.mu.Unlock()

	slog.Debug("token directory reloaded", "tokens", dir.Len())
	return dir, nil
}

// Refresh recarga los tokens y hace una pasada completa para owner,
// esperando su resultado. Si la recarga falla se usa el directorio anterior;
// sin directorio previo se publica el error.
func (r *Runner) Refresh(ctx context.Context, owner string) (domain.Snapshot, error) {
	dir, err := r.LoadTokens(ctx)
	if err != nil {
		if dir == nil {
			snap := r.publishError(ctx, owner, err)
			return snap, err
		}
		slog.Warn("token reload failed, using previous directory", "err", err)
	}

	return r.Trigger(ctx, owner, dir).Wait()
}

func (r *Runner) publishError(ctx context.Context, owner string, err error) domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := domain.Snapshot{
		Owner:      owner,
		Generation: r.gen,
		Err:        err,
		UpdatedAt:  time.Now(),
	}
	if r.latest.Owner == owner {
		snap.Positions = r.latest.Positions
		snap.RunID = r.latest.RunID
	}
	r.metrics.ObserveRun(metrics.ResultUpstreamError, 0)
	r.latest = snap
	r.notify(ctx, snap)
	return snap
}

// Watch hace una pasada inmediata y después una por intervalo, recargando
// el directorio de tokens cada vez. Con interval <= 0 hace una sola pasada y
// devuelve su error.
func (r *Runner) Watch(ctx context.Context, owner string, interval time.Duration) error {
	slog.Info("watch starting", "owner", owner, "interval", interval)

	_, err := r.Refresh(ctx, owner)
	if interval <= 0 {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped", "owner", owner)
			return nil
		case <-ticker.C:
			if _, err := r.Refresh(ctx, owner); err != nil && !errors.Is(err, ErrSuperseded) {
				slog.Error("refresh failed", "owner", owner, "err", err)
			}
		}
	}
}
