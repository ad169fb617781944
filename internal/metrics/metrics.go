// Package metrics expone métricas Prometheus de las pasadas de reconciliación.
// Un *Metrics nil es válido: todos los métodos son no-op.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "titan"

// Razones de descarte de un item de la reconciliación.
const (
	DropBadName      = "bad_name"
	DropMissingToken = "missing_token"
	DropUnknownToken = "unknown_token"
	DropPriceError   = "price_error"
	DropCancelled    = "cancelled"
)

// Resultados de una pasada.
const (
	ResultOK            = "ok"
	ResultUpstreamError = "upstream_error"
	ResultStale         = "stale"
)

// Metrics agrupa los collectors de titan.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec // labels: result=ok|upstream_error|stale
	RunDuration       prometheus.Histogram
	Reconciled        prometheus.Counter
	Dropped           *prometheus.CounterVec // labels: reason
	StaleRuns         prometheus.Counter
	InRange           prometheus.Gauge
	LastSuccessfulRun prometheus.Gauge

	registry *prometheus.Registry
}

// New crea y registra las métricas en un registry propio. Usar un registry
// por instancia permite crear varias en tests sin colisiones.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "runs_total",
			Help:      "Reconciliation runs by result",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full reconciliation run",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "positions_reconciled_total",
			Help:      "Positions successfully reconciled",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "positions_dropped_total",
			Help:      "Positions dropped from a run, by reason",
		}, []string{"reason"}),
		StaleRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "stale_runs_total",
			Help:      "Runs discarded because a newer run superseded them",
		}),
		InRange: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "in_range",
			Help:      "Positions in range in the latest published snapshot",
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the latest published run",
		}),
		registry: reg,
	}
	reg.MustRegister(
		m.RunsTotal, m.RunDuration, m.Reconciled, m.Dropped,
		m.StaleRuns, m.InRange, m.LastSuccessfulRun,
	)
	return m
}

// Registry devuelve el registry de esta instancia.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveDrop cuenta un item descartado.
func (m *Metrics) ObserveDrop(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

// ObserveReconciled cuenta n posiciones reconciliadas.
func (m *Metrics) ObserveReconciled(n int) {
	if m == nil {
		return
	}
	m.Reconciled.Add(float64(n))
}

// ObserveRun registra el resultado y la duración de una pasada.
func (m *Metrics) ObserveRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(d.Seconds())
	if result == ResultStale {
		m.StaleRuns.Inc()
	}
}

// ObservePublished actualiza los gauges del snapshot publicado.
func (m *Metrics) ObservePublished(inRange int, at time.Time) {
	if m == nil {
		return
	}
	m.InRange.Set(float64(inRange))
	m.LastSuccessfulRun.Set(float64(at.Unix()))
}

// Serve expone /metrics en addr hasta que ctx se cancele.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
