package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "rodeo").
	Namespace string

	// Subsystem is the metrics subsystem (default: "client").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
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
		Namespace:   "rodeo",
		Subsystem:   "client",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus instruments for the API client.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of API requests by method and status",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "API request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_errors_total",
			Help:        "Total number of failed API requests by method and error kind",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "kind"}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for
// every API request passing through the transport.
//
// Metrics collected:
//   - rodeo_client_requests_total: Counter of requests by method and status
//   - rodeo_client_request_duration_seconds: Histogram of request duration
//   - rodeo_client_request_errors_total: Counter of failures by method and kind
//
// Example:
//
//	t := transport.New(transport.Config{
//	    BaseURL:    "https://rodeo.example.com",
//	    Middleware: []transport.Middleware{middleware.Prometheus()},
//	})
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) transport.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := initMetrics(config)

	return func(next transport.Handler) transport.Handler {
		return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			start := time.Now()

			res, err := next(ctx, req)

			m.requestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

			if err != nil {
				m.requestsTotal.WithLabelValues(req.Method, statusLabel(err)).Inc()
				m.requestErrors.WithLabelValues(req.Method, errorKind(err)).Inc()
				return res, err
			}

			m.requestsTotal.WithLabelValues(req.Method, strconv.Itoa(res.StatusCode)).Inc()
			return res, nil
		}
	}
}

// statusLabel returns the status label for a failed request. Network
// failures that never produced a response are labeled "0".
func statusLabel(err error) string {
	if status := transport.StatusOf(err); status != 0 {
		return strconv.Itoa(status)
	}
	return "0"
}

// errorKind returns a low-cardinality category for the failure.
func errorKind(err error) string {
	apiErr, ok := transport.AsError(err)
	if !ok {
		return "internal"
	}
	switch {
	case apiErr.Timeout:
		return "timeout"
	case apiErr.IsNetwork():
		return "network"
	default:
		return "http"
	}
}
