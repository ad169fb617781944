package reconciler_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/metrics"
	"github.com/alejandrodnm/titan/internal/reconciler"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcSource func(ctx context.Context, owner string, dir *domain.TokenDirectory) ([]domain.ReconciledPosition, error)

func (f funcSource) Run(ctx context.Context, owner string, dir *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
	return f(ctx, owner, dir)
}

func positionsFor(owner string, n int) []domain.ReconciledPosition {
	out := make([]domain.ReconciledPosition, n)
	for i := range out {
		out[i] = domain.ReconciledPosition{
			Metadata:     domain.PositionMetadata{ID: fmt.Sprintf("%s-%d", owner, i)},
			CurrentPrice: dec("2000"),
			IsInRange:    true,
		}
	}
	return out
}

func TestRunner_StaleRunIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	var cancelledA atomic.Bool

	src := funcSource(func(ctx context.Context, owner string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		if owner == "A" {
			// Ignora la cancelación a propósito: termina tarde con datos completos.
			<-releaseA
			cancelledA.Store(ctx.Err() != nil)
			return positionsFor("A", 3), nil
		}
		return positionsFor("B", 2), nil
	})

	m := metrics.New()
	notifier := &mockNotifier{}
	r := reconciler.NewRunner(src, nil, notifier, m)

	runA := r.Trigger(context.Background(), "A", testDirectory())
	runB := r.Trigger(context.Background(), "B", testDirectory())

	snapB, err := runB.Wait()
	require.NoError(t, err)
	assert.Equal(t, "B", snapB.Owner)
	assert.Len(t, snapB.Positions, 2)

	close(releaseA)
	_, err = runA.Wait()
	assert.True(t, errors.Is(err, reconciler.ErrSuperseded))
	assert.True(t, cancelledA.Load(), "la pasada reemplazada ve su contexto cancelado")

	latest := r.Latest()
	assert.Equal(t, "B", latest.Owner)
	require.Len(t, latest.Positions, 2)
	for _, p := range latest.Positions {
		assert.Contains(t, p.Metadata.ID, "B-")
	}
	assert.Equal(t, []string{"B"}, notifier.owners())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleRuns))
}

func TestRunner_StaleRunFinishingFirstIsStillDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	releaseB := make(chan struct{})
	src := funcSource(func(_ context.Context, owner string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		if owner == "A" {
			<-releaseA
		} else {
			<-releaseB
		}
		return positionsFor(owner, 1), nil
	})

	r := reconciler.NewRunner(src, nil, nil, nil)
	runA := r.Trigger(context.Background(), "A", testDirectory())
	runB := r.Trigger(context.Background(), "B", testDirectory())

	close(releaseA)
	_, err := runA.Wait()
	assert.True(t, errors.Is(err, reconciler.ErrSuperseded))
	assert.Empty(t, r.Latest().Owner, "nada publicado mientras B sigue en vuelo")

	close(releaseB)
	snap, err := runB.Wait()
	require.NoError(t, err)
	assert.Equal(t, "B", snap.Owner)
	assert.Equal(t, "B", r.Latest().Owner)
}

func TestRunner_RunIdentity(t *testing.T) {
	src := funcSource(func(_ context.Context, owner string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		return nil, nil
	})
	r := reconciler.NewRunner(src, nil, nil, nil)

	first := r.Trigger(context.Background(), "A", nil)
	first.Wait()
	second := r.Trigger(context.Background(), "A", nil)
	snap, err := second.Wait()
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, uint64(2), second.Generation)
	assert.NotEqual(t, first.ID, second.ID)
	_, err = uuid.Parse(second.ID)
	assert.NoError(t, err)
	assert.Equal(t, second.ID, snap.RunID)
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestRunner_UpstreamErrorKeepsPreviousPositionsForSameOwner(t *testing.T) {
	var fail atomic.Bool
	src := funcSource(func(_ context.Context, owner string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		if fail.Load() {
			return nil, fmt.Errorf("refs: %w", domain.ErrUpstreamUnavailable)
		}
		return positionsFor(owner, 2), nil
	})
	r := reconciler.NewRunner(src, nil, nil, nil)

	_, err := r.Trigger(context.Background(), "A", nil).Wait()
	require.NoError(t, err)

	fail.Store(true)
	snap, err := r.Trigger(context.Background(), "A", nil).Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.Len(t, snap.Positions, 2, "lo ya mostrado no se pierde")
	assert.Error(t, snap.Err)

	snap, err = r.Trigger(context.Background(), "other", nil).Wait()
	require.Error(t, err)
	assert.Empty(t, snap.Positions, "otro owner no hereda posiciones ajenas")
	assert.Equal(t, "other", r.Latest().Owner)
}

func TestRunner_CallerCancellationPublishesNothing(t *testing.T) {
	src := funcSource(func(ctx context.Context, _ string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	notifier := &mockNotifier{}
	r := reconciler.NewRunner(src, nil, notifier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	run := r.Trigger(ctx, "A", nil)
	cancel()

	_, err := run.Wait()
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, r.Latest().Owner)
	assert.Empty(t, notifier.owners())
}

func TestRunner_WatchOnce(t *testing.T) {
	var seen atomic.Int32
	src := funcSource(func(_ context.Context, owner string, dir *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		seen.Store(int32(dir.Len()))
		return positionsFor(owner, 1), nil
	})
	tokens := &mockTokenProvider{tokens: testDirectory().Tokens()}
	notifier := &mockNotifier{}
	r := reconciler.NewRunner(src, tokens, notifier, nil)

	err := r.Watch(context.Background(), "A", 0)
	require.NoError(t, err)

	assert.Equal(t, int32(2), seen.Load())
	assert.Equal(t, 1, tokens.calls)
	assert.Equal(t, 2, r.Directory().Len())
	assert.Equal(t, []string{"A"}, notifier.owners())
}

func TestRunner_WatchOnce_TokensUnavailable(t *testing.T) {
	var called atomic.Bool
	src := funcSource(func(_ context.Context, _ string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		called.Store(true)
		return nil, nil
	})
	tokens := &mockTokenProvider{err: fmt.Errorf("tokens: %w", domain.ErrUpstreamUnavailable)}
	notifier := &mockNotifier{}
	r := reconciler.NewRunner(src, tokens, notifier, nil)

	err := r.Watch(context.Background(), "A", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.False(t, called.Load())
	assert.Error(t, r.Latest().Err)
	assert.Equal(t, []string{"A"}, notifier.owners(), "el error se muestra")
}

func TestRunner_RefreshFallsBackToPreviousDirectory(t *testing.T) {
	src := funcSource(func(_ context.Context, owner string, dir *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		if dir.Len() == 0 {
			return nil, errors.New("no directory")
		}
		return positionsFor(owner, 1), nil
	})
	tokens := &mockTokenProvider{tokens: testDirectory().Tokens()}
	r := reconciler.NewRunner(src, tokens, nil, nil)

	_, err := r.Refresh(context.Background(), "A")
	require.NoError(t, err)

	tokens.err = errors.New("down")
	snap, err := r.Refresh(context.Background(), "A")
	require.NoError(t, err)
	assert.Len(t, snap.Positions, 1)
}

func TestRunner_WatchLoopsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	src := funcSource(func(_ context.Context, owner string, _ *domain.TokenDirectory) ([]domain.ReconciledPosition, error) {
		runs.Add(1)
		return nil, nil
	})
	tokens := &mockTokenProvider{tokens: testDirectory().Tokens()}
	r := reconciler.NewRunner(src, tokens, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := r.Watch(ctx, "A", 20*time.Millisecond)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}
