package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "joulebench"

// Metrics represents the collection of all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Import metrics
	ImportsTotal   *prometheus.CounterVec
	RowsWritten    prometheus.Counter
	ImportFailures *prometheus.CounterVec

	// Query metrics
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics on a fresh registry that also carries the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.ImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Total number of result file imports",
		},
		[]string{"status"},
	)

	m.RowsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total number of benchmark rows persisted",
		},
	)

	m.ImportFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_failures_total",
			Help:      "Total number of failed imports by error kind",
		},
		[]string{"kind"},
	)

	m.QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of aggregate queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ImportsTotal,
		m.RowsWritten,
		m.ImportFailures,
		m.QueryDuration,
	)

	return m
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveImport records one import outcome. kind is the error kind of a failed import.
func (m *Metrics) ObserveImport(success bool, written int, kind string) {
	if m == nil {
		return
	}
	if written > 0 {
		m.RowsWritten.Add(float64(written))
	}
	if success {
		m.ImportsTotal.WithLabelValues("success").Inc()
		return
	}
	m.ImportsTotal.WithLabelValues("failure").Inc()
	m.ImportFailures.WithLabelValues(kind).Inc()
}

// ObserveQuery records the duration of one aggregate query started at start
func (m *Metrics) ObserveQuery(query string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
