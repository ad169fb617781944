package reconciler

// reconciler.go: metadatos + directorio de tokens + precio spot → posiciones
// clasificadas.
//
// Cada item se procesa en su propia goroutine dentro de un errgroup con
// límite de concurrencia. Ninguna goroutine devuelve error: un item que falla
// se descarta (log + métrica) y el resto sigue. El resultado conserva el
// orden de entrada de los sobrevivientes.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/alejandrodnm/titan/internal/metrics"
	"github.com/alejandrodnm/titan/internal/ports"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 16

// Reconciler clasifica posiciones contra el precio spot.
type Reconciler struct {
	prices      ports.PriceProvider
	metrics     *metrics.Metrics
	concurrency int
}

// New crea un Reconciler. concurrency <= 0 usa el default; m puede ser nil.
func New(prices ports.PriceProvider, concurrency int, m *metrics.Metrics) *Reconciler {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Reconciler{prices: prices, metrics: m, concurrency: concurrency}
}

// dropError es un fallo por item con su razón para métricas.
type dropError struct {
	reason string
	err    error
}

func (e *dropError) Error() string { return e.reason + ": " + e.err.Error() }
func (e *dropError) Unwrap() error { return e.err }

func drop(reason string, err error) error {
	return &dropError{reason: reason, err: err}
}

// Reconcile procesa todos los metadatos concurrentemente y devuelve las
// posiciones que sobrevivieron. Nunca falla: los items inválidos se
// descartan.
func (r *Reconciler) Reconcile(ctx context.Context, metas []domain.PositionMetadata, dir *domain.TokenDirectory) []domain.ReconciledPosition {
	if len(metas) == 0 {
		return []domain.ReconciledPosition{}
	}

	slots := make([]*domain.ReconciledPosition, len(metas))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, meta := range metas {
		g.Go(func() error {
			pos, err := r.reconcileOne(ctx, meta, dir)
			if err != nil {
				r.logDrop(meta, err)
				return nil
			}
			slots[i] = &pos
			return nil
		})
	}
	g.Wait()

	out := make([]domain.ReconciledPosition, 0, len(metas))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	r.metrics.ObserveReconciled(len(out))
	return out
}

// ReconcileOne procesa un único documento (vista de detalle). A diferencia de
// Reconcile, devuelve el motivo del descarte como error.
func (r *Reconciler) ReconcileOne(ctx context.Context, meta domain.PositionMetadata, dir *domain.TokenDirectory) (domain.ReconciledPosition, error) {
	pos, err := r.reconcileOne(ctx, meta, dir)
	if err != nil {
		return domain.ReconciledPosition{}, fmt.Errorf("reconciler.ReconcileOne %s: %w", meta.ID, err)
	}
	return pos, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, meta domain.PositionMetadata, dir *domain.TokenDirectory) (domain.ReconciledPosition, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReconciledPosition{}, drop(metrics.DropCancelled, err)
	}

	rng, err := domain.ParsePositionName(meta.Name)
	if err != nil {
		return domain.ReconciledPosition{}, drop(metrics.DropBadName, err)
	}

	addr0, ok0 := meta.Attr(domain.TraitToken0)
	addr1, ok1 := meta.Attr(domain.TraitToken1)
	if !ok0 || !ok1 || addr0 == "" || addr1 == "" {
		return domain.ReconciledPosition{}, drop(metrics.DropMissingToken,
			fmt.Errorf("token0/token1 attribute missing: %w", domain.ErrInvalidArgument))
	}

	token0, ok0 := dir.Resolve(addr0)
	token1, ok1 := dir.Resolve(addr1)
	if !ok0 || !ok1 {
		return domain.ReconciledPosition{}, drop(metrics.DropUnknownToken,
			fmt.Errorf("token not in directory (token0=%t token1=%t): %w", ok0, ok1, domain.ErrInvalidArgument))
	}

	price, err := r.prices.FetchPrice(ctx, token0.Address, token1.Address)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ReconciledPosition{}, drop(metrics.DropCancelled, err)
		}
		return domain.ReconciledPosition{}, drop(metrics.DropPriceError, err)
	}

	checkQuoteDirection(meta, token0, token1, rng)

	return domain.ReconciledPosition{
		Metadata:     meta,
		Token0:       token0,
		Token1:       token1,
		Label:        rng.Label,
		FeeLabel:     rng.FeeLabel,
		MinPrice:     rng.Min,
		MaxPrice:     rng.Max,
		CurrentPrice: price,
		IsInRange:    rng.Contains(price),
	}, nil
}

func (r *Reconciler) logDrop(meta domain.PositionMetadata, err error) {
	reason := "unknown"
	var de *dropError
	if errors.As(err, &de) {
		reason = de.reason
	}
	r.metrics.ObserveDrop(reason)

	if reason == metrics.DropCancelled {
		slog.Debug("position dropped, run cancelled", "position_id", meta.ID)
		return
	}
	slog.Warn("position dropped",
		"position_id", meta.ID,
		"reason", reason,
		"err", err,
	)
}
