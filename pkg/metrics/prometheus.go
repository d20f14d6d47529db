// Package metrics provides Prometheus metrics for the ICAO scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	recomputeBuckets []float64
	registry         prometheus.Registerer

	// Submissions and store writes
	entriesSubmitted      prometheus.Counter
	submissionsRejected   *prometheus.CounterVec
	idempotentReplays     prometheus.Counter
	entriesDeleted        prometheus.Counter
	bulkDeletes           prometheus.Counter
	storeErrors           *prometheus.CounterVec
	storeOperationLatency *prometheus.HistogramVec

	// Snapshot and derived views
	snapshotEntries          prometheus.Gauge
	snapshotDeliveries       prometheus.Counter
	snapshotRecomputeLatency prometheus.Histogram
	streamListeners          prometheus.Gauge
	streamDropped            prometheus.Counter

	// Exports
	exports *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry, prometheus.DefaultRegisterer when none is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "icao",
		subsystem:        "scores",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		recomputeBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.entriesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_submitted_total",
		Help:      "Score entries accepted and persisted",
	})

	m.submissionsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_rejected_total",
		Help:      "Submissions rejected before reaching the store, by reason",
	}, []string{"reason"})

	m.idempotentReplays = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "idempotent_replays_total",
		Help:      "Submissions answered from the idempotency cache",
	})

	m.entriesDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entries_deleted_total",
		Help:      "Delete requests completed against the store",
	})

	m.bulkDeletes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bulk_deletes_total",
		Help:      "Bulk delete operations that issued at least one delete",
	})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Entry store failures, by operation",
	}, []string{"operation"})

	m.storeOperationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_operation_latency_milliseconds",
		Help:      "Entry store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_entries",
		Help:      "Entries in the latest snapshot",
	})

	m.snapshotDeliveries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_deliveries_total",
		Help:      "Full snapshots delivered by the entry store",
	})

	m.snapshotRecomputeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_recompute_latency_milliseconds",
		Help:      "Time to sort a snapshot and recompute derived views",
		Buckets:   m.recomputeBuckets,
	})

	m.streamListeners = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_listeners",
		Help:      "Live snapshot stream listeners currently attached",
	})

	m.streamDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_snapshots_coalesced_total",
		Help:      "Snapshots replaced in a listener mailbox before being read",
	})

	m.exports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exports_total",
		Help:      "Exports produced, by format",
	}, []string{"format"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP error responses by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordEntrySubmitted increments the accepted submissions counter.
func RecordEntrySubmitted() {
	globalManager.entriesSubmitted.Inc()
}

// RecordSubmissionRejected counts a submission refused for reason.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordIdempotentReplay counts a submission answered from the cache.
func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

// RecordEntriesDeleted adds n completed deletes.
func RecordEntriesDeleted(n int) {
	globalManager.entriesDeleted.Add(float64(n))
}

// RecordBulkDelete counts one bulk delete operation.
func RecordBulkDelete() {
	globalManager.bulkDeletes.Inc()
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// RecordStoreLatency observes a store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeOperationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordSnapshot records a delivered snapshot of size entries.
func RecordSnapshot(size int) {
	globalManager.snapshotDeliveries.Inc()
	globalManager.snapshotEntries.Set(float64(size))
}

// RecordSnapshotRecompute observes derived view recomputation time.
func RecordSnapshotRecompute(latencyMs float64) {
	globalManager.snapshotRecomputeLatency.Observe(latencyMs)
}

// UpdateStreamListeners sets the attached listener count.
func UpdateStreamListeners(count int) {
	globalManager.streamListeners.Set(float64(count))
}

// RecordStreamCoalesced counts a snapshot overwritten in a mailbox.
func RecordStreamCoalesced() {
	globalManager.streamDropped.Inc()
}

// RecordExport counts an export of the given format.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the service registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
