// Package observe provides Observer implementations that export
// navigation and preload events: Prometheus metrics and OpenTelemetry
// spans.
package observe

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wayfind-dev/wayfind/pkg/router"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wayfind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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

// WithBuckets sets the histogram buckets.
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
		Namespace: "wayfind",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a router.Observer exporting Prometheus metrics.
//
// Metrics collected:
//   - wayfind_navigations_total: Counter of navigations by matched and source
//   - wayfind_navigation_duration_seconds: Histogram of transition duration
//   - wayfind_preloads_total: Counter of preloads by route template and outcome
//   - wayfind_preload_duration_seconds: Histogram of preload duration by template
//
// Labels on preload metrics use the route template, never the concrete
// path, to keep cardinality bounded.
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration prometheus.Histogram
	preloadsTotal      *prometheus.CounterVec
	preloadDuration    *prometheus.HistogramVec
}

var _ router.Observer = (*Metrics)(nil)

// NewMetrics creates the Prometheus observer.
//
// Example:
//
//	r, err := router.New(h, router.Config{
//	    Source:   src,
//	    Observer: observe.NewMetrics(observe.WithNamespace("myapp")),
//	})
//
//	http.Handle("/metrics", promhttp.Handler())
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of resolved navigations",
			ConstLabels: config.ConstLabels,
		}, []string{"matched", "source"}),

		navigationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation transition duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		preloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "preloads_total",
			Help:        "Total number of finished route preloads",
			ConstLabels: config.ConstLabels,
		}, []string{"template", "outcome"}),

		preloadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "preload_duration_seconds",
			Help:        "Route preload duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"template"}),
	}
}

// NavigationResolved implements router.Observer.
func (m *Metrics) NavigationResolved(e router.NavigationEvent) {
	source := "programmatic"
	if e.External {
		source = "external"
	}
	m.navigationsTotal.WithLabelValues(strconv.FormatBool(e.Matched), source).Inc()
	m.navigationDuration.Observe(e.Duration.Seconds())
}

// PreloadFinished implements router.Observer.
func (m *Metrics) PreloadFinished(e router.PreloadEvent) {
	m.preloadsTotal.WithLabelValues(e.Template, e.Outcome).Inc()
	m.preloadDuration.WithLabelValues(e.Template).Observe(e.Duration.Seconds())
}
