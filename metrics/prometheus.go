// Package metrics records consistency.Manager and cleanup telemetry with Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/velmie/consistency"
	"github.com/velmie/consistency/sqlstore"
)

const defaultNamespace = "consistency"

// Options configures the collectors.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "consistency".
	Namespace string
	// ConstLabels are attached to every series (e.g., the store name).
	ConstLabels prometheus.Labels
	// Buckets overrides the store duration histogram buckets.
	Buckets []float64
}

// Prometheus implements consistency.Metrics.
type Prometheus struct {
	succeeded     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	errors        *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	cleanupRows   prometheus.Counter
	cleanupRuns   *prometheus.CounterVec
}

var _ consistency.Metrics = (*Prometheus)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, opts Options) (*Prometheus, error) {
	if opts.Namespace == "" {
		opts.Namespace = defaultNamespace
	}
	if len(opts.Buckets) == 0 {
		opts.Buckets = prometheus.DefBuckets
	}

	m := &Prometheus{
		succeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "operations_succeeded_total",
			Help:        "Manager operations that returned a succeeded result.",
			ConstLabels: opts.ConstLabels,
		}, []string{"operation"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "operations_failed_total",
			Help:        "Manager operations that returned a failed result, by error code.",
			ConstLabels: opts.ConstLabels,
		}, []string{"operation", "code"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "operation_errors_total",
			Help:        "Manager operations that returned an error (cancellation or unhandled store error).",
			ConstLabels: opts.ConstLabels,
		}, []string{"operation"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "store_call_duration_seconds",
			Help:        "Time spent in message store calls.",
			ConstLabels: opts.ConstLabels,
			Buckets:     opts.Buckets,
		}, []string{"operation"}),
		cleanupRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "cleanup_deleted_total",
			Help:        "Messages removed by retention cleanup.",
			ConstLabels: opts.ConstLabels,
		}),
		cleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "cleanup_runs_total",
			Help:        "Retention cleanup passes by outcome.",
			ConstLabels: opts.ConstLabels,
		}, []string{"outcome"}),
	}

	var err error
	if m.succeeded, err = register(reg, m.succeeded); err != nil {
		return nil, err
	}
	if m.failed, err = register(reg, m.failed); err != nil {
		return nil, err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}
	if m.storeDuration, err = register(reg, m.storeDuration); err != nil {
		return nil, err
	}
	if m.cleanupRows, err = register(reg, m.cleanupRows); err != nil {
		return nil, err
	}
	if m.cleanupRuns, err = register(reg, m.cleanupRuns); err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveStoreDuration implements consistency.Metrics.
func (m *Prometheus) ObserveStoreDuration(op string, duration time.Duration) {
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// AddSucceeded implements consistency.Metrics.
func (m *Prometheus) AddSucceeded(op string) {
	m.succeeded.WithLabelValues(op).Inc()
}

// AddFailed implements consistency.Metrics.
func (m *Prometheus) AddFailed(op, code string) {
	m.failed.WithLabelValues(op, code).Inc()
}

// AddErrors implements consistency.Metrics.
func (m *Prometheus) AddErrors(op string) {
	m.errors.WithLabelValues(op).Inc()
}

// ObserveCleanup records a cleanup pass. It matches sqlstore.CleanupMaintainerConfig.OnRun.
func (m *Prometheus) ObserveCleanup(res sqlstore.CleanupResult, err error) {
	if err != nil {
		m.cleanupRuns.WithLabelValues("error").Inc()

		return
	}
	m.cleanupRuns.WithLabelValues("ok").Inc()
	m.cleanupRows.Add(float64(res.Deleted))
}

// register adds c to reg, reusing the collector already registered under the same
// descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}
