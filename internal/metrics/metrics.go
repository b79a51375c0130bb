package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "downloader_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Download Metrics
	DownloadsAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "downloader_downloads_added_total",
			Help: "Total number of downloads submitted",
		},
	)

	DownloadsCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "downloader_downloads_cancelled_total",
			Help: "Total number of downloads cancelled",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_events_published_total",
			Help: "Total number of download events handed to the queue",
		},
		[]string{"event", "status"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "downloader_queue_depth",
			Help: "Download events waiting for the worker",
		},
	)

	// Auth Metrics
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	SessionsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "downloader_sessions_swept_total",
			Help: "Total number of expired sessions removed by the sweeper",
		},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "downloader_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloader_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordDownloadAdded records a new download row
func RecordDownloadAdded() {
	DownloadsAddedTotal.Inc()
}

// RecordDownloadCancelled records a successful cancellation
func RecordDownloadCancelled() {
	DownloadsCancelledTotal.Inc()
}

// RecordEventPublished records the outcome of a queue publish
func RecordEventPublished(event string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	EventsPublishedTotal.WithLabelValues(event, status).Inc()
}

// SetQueueDepth records the last observed queue depth
func SetQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordLogin records a login attempt by result: success, failure or rate_limited
func RecordLogin(result string) {
	LoginsTotal.WithLabelValues(result).Inc()
}

// RecordSessionsSwept records sessions removed in one sweep
func RecordSessionsSwept(count int64) {
	SessionsSweptTotal.Add(float64(count))
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	DatabaseOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
