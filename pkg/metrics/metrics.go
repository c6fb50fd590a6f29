// Package metrics exports Prometheus metrics for the component runtime, the
// counter store and the live server.
//
// Metrics collected (namespace "lifecycle" by default):
//   - lifecycle_component_mounts_total: instances mounted, by component
//   - lifecycle_component_unmounts_total: instances unmounted, by component
//   - lifecycle_component_renders_total: render calls, by component
//   - lifecycle_mounted_instances: instances currently mounted
//   - lifecycle_flush_duration_seconds: time spent per flush
//   - lifecycle_store_increments_total: counter increments
//   - lifecycle_store_count: the current count
//   - lifecycle_events_total: client events, by status
//   - lifecycle_websocket_clients: connected live clients
//   - lifecycle_websocket_errors_total: websocket errors, by type
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/lifecycle/pkg/store"
)

// Config configures the metrics set.
type Config struct {
	// Namespace is the metrics namespace (default: "lifecycle").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the registry metrics are registered with and served from.
	// Default: a new registry.
	Registry *prometheus.Registry
}

// Option configures the metrics set.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "lifecycle",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics holds the collectors. It implements component.Observer.
type Metrics struct {
	registry *prometheus.Registry

	mounts        *prometheus.CounterVec
	unmounts      *prometheus.CounterVec
	renders       *prometheus.CounterVec
	mounted       prometheus.Gauge
	flushDuration prometheus.Histogram
	increments    prometheus.Counter
	count         prometheus.Gauge
	eventsTotal   *prometheus.CounterVec
	wsClients     prometheus.Gauge
	wsErrors      *prometheus.CounterVec
}

// New registers the metrics set.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)
	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts(counterOpts(name, help))
	}

	return &Metrics{
		registry: config.Registry,

		mounts: factory.NewCounterVec(
			counterOpts("component_mounts_total", "Total number of component instances mounted"),
			[]string{"component"}),
		unmounts: factory.NewCounterVec(
			counterOpts("component_unmounts_total", "Total number of component instances unmounted"),
			[]string{"component"}),
		renders: factory.NewCounterVec(
			counterOpts("component_renders_total", "Total number of component renders"),
			[]string{"component"}),
		mounted: factory.NewGauge(
			gaugeOpts("mounted_instances", "Number of component instances currently mounted")),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Render and commit duration per flush in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		increments: factory.NewCounter(
			counterOpts("store_increments_total", "Total number of counter increments")),
		count: factory.NewGauge(
			gaugeOpts("store_count", "Current value of the shared counter")),
		eventsTotal: factory.NewCounterVec(
			counterOpts("events_total", "Total number of client events processed"),
			[]string{"status"}),
		wsClients: factory.NewGauge(
			gaugeOpts("websocket_clients", "Number of connected live clients")),
		wsErrors: factory.NewCounterVec(
			counterOpts("websocket_errors_total", "Total WebSocket errors by type"),
			[]string{"type"}),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// component.Observer
// =============================================================================

// Mounted records a mounted instance.
func (m *Metrics) Mounted(name string) {
	m.mounts.WithLabelValues(name).Inc()
	m.mounted.Inc()
}

// Unmounted records an unmounted instance.
func (m *Metrics) Unmounted(name string) {
	m.unmounts.WithLabelValues(name).Inc()
	m.mounted.Dec()
}

// Rendered records a render call.
func (m *Metrics) Rendered(name string) {
	m.renders.WithLabelValues(name).Inc()
}

// Flushed records a flush.
func (m *Metrics) Flushed(_ int, d time.Duration) {
	m.flushDuration.Observe(d.Seconds())
}

// =============================================================================
// Store and server recording
// =============================================================================

// TrackCounter records increments of s until the returned function is
// called.
func (m *Metrics) TrackCounter(s *store.Counter) (stop func()) {
	m.count.Set(float64(s.GetState().Count))
	return s.Subscribe(func(state store.CounterState) {
		m.increments.Inc()
		m.count.Set(float64(state.Count))
	})
}

// RecordEvent records a processed client event.
func (m *Metrics) RecordEvent(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsTotal.WithLabelValues(status).Inc()
}

// RecordClientConnect records a live client connecting.
func (m *Metrics) RecordClientConnect() {
	m.wsClients.Inc()
}

// RecordClientDisconnect records a live client disconnecting.
func (m *Metrics) RecordClientDisconnect() {
	m.wsClients.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}
