package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the scheduler metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reflow").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// A nil registry creates unregistered collectors.
	Registry prometheus.Registerer
}

// MetricsOption configures the scheduler metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reflow",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	}
}

// Metrics counts what the scheduler and observations do.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TasksEnqueued      *prometheus.CounterVec
	TasksRun           *prometheus.CounterVec
	TasksCoalesced     prometheus.Counter
	Batches            prometheus.Counter
	FlushDuration      prometheus.Histogram
	Recomputes         prometheus.Counter
	DispatchSuppressed prometheus.Counter
}

// NewMetrics creates the scheduler metrics and registers them on the
// configured registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		TasksEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_enqueued_total",
			Help:        "Total number of tasks enqueued, by queue",
			ConstLabels: config.ConstLabels,
		}, []string{"queue"}),

		TasksRun: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_run_total",
			Help:        "Total number of tasks run, by queue",
			ConstLabels: config.ConstLabels,
		}, []string{"queue"}),

		TasksCoalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_coalesced_total",
			Help:        "Total number of priority queue enqueues dropped because the handler was already pending",
			ConstLabels: config.ConstLabels,
		}),

		Batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batches_total",
			Help:        "Total number of outermost batches opened",
			ConstLabels: config.ConstLabels,
		}),

		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Duration of a full notify to mutate pipeline flush",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		Recomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observation_recomputes_total",
			Help:        "Total number of observation update tasks run",
			ConstLabels: config.ConstLabels,
		}),

		DispatchSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observation_dispatch_suppressed_total",
			Help:        "Total number of recomputes whose value did not change",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) TaskEnqueued(queue string) {
	if m == nil {
		return
	}
	m.TasksEnqueued.WithLabelValues(queue).Inc()
}

func (m *Metrics) TaskRun(queue string) {
	if m == nil {
		return
	}
	m.TasksRun.WithLabelValues(queue).Inc()
}

func (m *Metrics) TaskCoalesced() {
	if m == nil {
		return
	}
	m.TasksCoalesced.Inc()
}

func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.Batches.Inc()
}

func (m *Metrics) FlushObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.FlushDuration.Observe(d.Seconds())
}

func (m *Metrics) Recomputed() {
	if m == nil {
		return
	}
	m.Recomputes.Inc()
}

func (m *Metrics) Suppressed() {
	if m == nil {
		return
	}
	m.DispatchSuppressed.Inc()
}
