// Package metrics provides Prometheus metrics for the gig conflict service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default latency buckets in milliseconds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Conflict detection
	conflictChecks       *prometheus.CounterVec
	conflictCheckLatency *prometheus.HistogramVec
	conflictsFound       *prometheus.CounterVec

	// Data store reads
	storeQueryLatency *prometheus.HistogramVec
	storeQueryErrors  *prometheus.CounterVec

	// Sweeps
	sweepRuns         *prometheus.CounterVec
	sweepDuration     prometheus.Histogram
	sweepGigs         prometheus.Gauge
	sweepConflicts    prometheus.Gauge
	sweepLastUnixTime prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry, which GetRegistry then returns. Call it once at startup, before
// metrics are recorded or the registry is served.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigmanager",
		subsystem:        "conflicts",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.conflictChecks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "checks_total",
		Help:        "Conflict checks by mode (single, batch) and outcome",
		ConstLabels: labels,
	}, []string{"mode", "outcome"})

	m.conflictCheckLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "check_latency_milliseconds",
		Help:        "Conflict check latency in milliseconds by mode",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"mode"})

	m.conflictsFound = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "found_total",
		Help:        "Conflict records returned by type and level",
		ConstLabels: labels,
	}, []string{"type", "level"})

	m.storeQueryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_query_latency_milliseconds",
		Help:        "Data store read latency in milliseconds by operation",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"op"})

	m.storeQueryErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_query_errors_total",
		Help:        "Data store read failures by operation and kind (network, query)",
		ConstLabels: labels,
	}, []string{"op", "kind"})

	m.sweepRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sweeps_total",
		Help:        "Scheduled conflict sweeps by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.sweepDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sweep_duration_milliseconds",
		Help:        "Scheduled sweep duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.sweepGigs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sweep_gigs",
		Help:        "Gigs examined by the last sweep",
		ConstLabels: labels,
	})

	m.sweepConflicts = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sweep_conflicts",
		Help:        "Conflict records found by the last sweep",
		ConstLabels: labels,
	})

	m.sweepLastUnixTime = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sweep_last_unix",
		Help:        "Unix timestamp of the last completed sweep",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Total number of errors by type",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Total number of errors by endpoint",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Conflict detection.

// RecordConflictCheck counts a finished check.
func RecordConflictCheck(mode, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.conflictChecks.WithLabelValues(mode, outcome).Inc()
}

// RecordConflictCheckLatency records check latency in milliseconds.
func RecordConflictCheckLatency(mode string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.conflictCheckLatency.WithLabelValues(mode).Observe(latencyMs)
}

// RecordConflictsFound adds count records of the given type and level.
func RecordConflictsFound(conflictType, level string, count int) {
	if !globalManager.enabled || count <= 0 {
		return
	}
	globalManager.conflictsFound.WithLabelValues(conflictType, level).Add(float64(count))
}

// Data store.

// RecordStoreQueryLatency records a read's latency in milliseconds.
func RecordStoreQueryLatency(op string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreQueryError counts a failed read.
func RecordStoreQueryError(op, kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeQueryErrors.WithLabelValues(op, kind).Inc()
}

// Sweeps.

// RecordSweep counts a sweep run.
func RecordSweep(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sweepRuns.WithLabelValues(outcome).Inc()
}

// RecordSweepDuration records sweep duration in milliseconds.
func RecordSweepDuration(durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sweepDuration.Observe(durationMs)
}

// UpdateSweepResult publishes the totals of the last completed sweep.
func UpdateSweepResult(gigs, conflicts int, at time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.sweepGigs.Set(float64(gigs))
	globalManager.sweepConflicts.Set(float64(conflicts))
	globalManager.sweepLastUnixTime.Set(float64(at.Unix()))
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
