// Package metrics provides Prometheus metrics for the roster statistics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline
	uploadsTotal          *prometheus.CounterVec
	uploadRecords         prometheus.Histogram
	pipelineStageDuration *prometheus.HistogramVec
	datasetRecords        prometheus.Gauge
	distributionsComputed prometheus.Counter

	// Reports
	reportsGenerated     *prometheus.CounterVec
	reportRenderDuration *prometheus.HistogramVec
	reportPages          prometheus.Histogram

	// History, auth, live
	historyEntries prometheus.Gauge
	authAttempts   *prometheus.CounterVec
	liveClients    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Render queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Render workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "recruitstat",
		subsystem:        "roster",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	msBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

	m.uploadsTotal = auto.NewCounterVec(
		m.counterOpts("uploads_total", "Roster uploads by outcome (accepted, duplicate, rejected, failed)"),
		[]string{"result"},
	)
	m.uploadRecords = auto.NewHistogram(
		m.histogramOpts("upload_records", "Number of records per accepted upload",
			prometheus.ExponentialBuckets(10, 2, 12)),
	)
	m.pipelineStageDuration = auto.NewHistogramVec(
		m.histogramOpts("pipeline_stage_duration_milliseconds", "Duration of pipeline stages in milliseconds", msBuckets),
		[]string{"stage"},
	)
	m.datasetRecords = auto.NewGauge(
		m.gaugeOpts("dataset_records", "Records in the current dataset (0 when none is loaded)"),
	)
	m.distributionsComputed = auto.NewCounter(
		m.counterOpts("distributions_computed_total", "Total statistics snapshots computed"),
	)

	m.reportsGenerated = auto.NewCounterVec(
		m.counterOpts("reports_generated_total", "Reports generated by format and outcome"),
		[]string{"format", "result"},
	)
	m.reportRenderDuration = auto.NewHistogramVec(
		m.histogramOpts("report_render_duration_milliseconds", "Report rendering duration in milliseconds", msBuckets),
		[]string{"format"},
	)
	m.reportPages = auto.NewHistogram(
		m.histogramOpts("report_pdf_pages", "Page count of rendered PDF reports", []float64{1, 2, 3, 4, 5, 8, 12, 20}),
	)

	m.historyEntries = auto.NewGauge(
		m.gaugeOpts("history_entries", "Upload history entries currently retained"),
	)
	m.authAttempts = auto.NewCounterVec(
		m.counterOpts("auth_attempts_total", "Login attempts by outcome"),
		[]string{"result"},
	)
	m.liveClients = auto.NewGauge(
		m.gaugeOpts("live_clients", "Connected websocket clients"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", msBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("render_queue_size", "Current size of the render queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("render_queue_capacity", "Maximum capacity of the render queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("render_queue_utilization_ratio", "Render queue utilization ratio (0.0 to 1.0)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("render_queue_enqueue_total", "Total render jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("render_queue_dequeue_total", "Total render jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("render_queue_enqueue_errors_total", "Total render enqueue failures"))
	m.queueProcessingLatency = auto.NewHistogram(
		m.histogramOpts("render_queue_processing_latency_milliseconds", "Render enqueue latency in milliseconds", nil),
	)

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("render_worker_active_count", "Number of render workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("render_worker_processing_latency_milliseconds", "Render job processing latency in milliseconds", msBuckets),
	)
	m.workerErrorRate = auto.NewCounter(m.counterOpts("render_worker_errors_total", "Total render job failures"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", msBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Pipeline.

// RecordUpload counts an upload outcome.
func RecordUpload(result string) {
	globalManager.uploadsTotal.WithLabelValues(result).Inc()
}

// RecordUploadRecords observes the record count of an accepted upload.
func RecordUploadRecords(n int) {
	globalManager.uploadRecords.Observe(float64(n))
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, durationMs float64) {
	globalManager.pipelineStageDuration.WithLabelValues(stage).Observe(durationMs)
}

// UpdateDatasetRecords sets the size of the current dataset.
func UpdateDatasetRecords(n int) {
	globalManager.datasetRecords.Set(float64(n))
}

// RecordDistributionsComputed counts a statistics snapshot.
func RecordDistributionsComputed() {
	globalManager.distributionsComputed.Inc()
}

// Reports.

// RecordReport counts a report generation outcome.
func RecordReport(format, result string) {
	globalManager.reportsGenerated.WithLabelValues(format, result).Inc()
}

// RecordReportDuration records report rendering time.
func RecordReportDuration(format string, durationMs float64) {
	globalManager.reportRenderDuration.WithLabelValues(format).Observe(durationMs)
}

// RecordReportPages observes the page count of a PDF report.
func RecordReportPages(pages int) {
	globalManager.reportPages.Observe(float64(pages))
}

// History, auth, live.

// UpdateHistoryEntries sets the number of retained history entries.
func UpdateHistoryEntries(n int) {
	globalManager.historyEntries.Set(float64(n))
}

// RecordAuthAttempt counts a login attempt outcome.
func RecordAuthAttempt(result string) {
	globalManager.authAttempts.WithLabelValues(result).Inc()
}

// UpdateLiveClients sets the number of connected websocket clients.
func UpdateLiveClients(n int) {
	globalManager.liveClients.Set(float64(n))
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
