package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "dashboard_"

	resultSuccess = "success"
	resultError   = "error"

	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

var (
	registerOnce sync.Once

	sourceQueryTotal   *prometheus.CounterVec
	sourceQueryLatency *prometheus.HistogramVec

	cacheRequests *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
	reportArchiveTotal  *prometheus.CounterVec

	loginTotal *prometheus.CounterVec

	liveSubscribers prometheus.Gauge

	httpRequests *prometheus.HistogramVec
)

// Init registers dashboard metrics and DB-backed gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		sourceQueryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "source_queries_total",
				Help: "Total historian queries by dataset and result",
			},
			[]string{"dataset", "result"},
		)
		sourceQueryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "source_query_latency_seconds",
				Help:    "Historian query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dataset", "result"},
		)

		cacheRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_requests_total",
				Help: "Row cache lookups by dataset and outcome",
			},
			[]string{"dataset", "outcome"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)
		reportArchiveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_archive_total",
				Help: "Total archived reports by backend and result",
			},
			[]string{"backend", "result"},
		)

		loginTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_total",
				Help: "Total login attempts by result",
			},
			[]string{"result"},
		)

		liveSubscribers = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "live_subscribers",
				Help: "Connected live feed subscribers",
			},
		)

		httpRequests = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		)

		prometheus.MustRegister(
			sourceQueryTotal,
			sourceQueryLatency,
			cacheRequests,
			reportExportTotal,
			reportExportLatency,
			reportArchiveTotal,
			loginTotal,
			liveSubscribers,
			httpRequests,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveSourceQuery records a historian read.
func ObserveSourceQuery(dataset string, err error, duration time.Duration) {
	if dataset == "" {
		dataset = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if sourceQueryTotal != nil {
		sourceQueryTotal.WithLabelValues(dataset, result).Inc()
	}
	if sourceQueryLatency != nil {
		sourceQueryLatency.WithLabelValues(dataset, result).Observe(duration.Seconds())
	}
}

// IncCache increments the cache lookup counter.
func IncCache(dataset, outcome string) {
	if dataset == "" {
		dataset = "unknown"
	}
	if outcome == "" {
		outcome = cacheMiss
	}
	if cacheRequests != nil {
		cacheRequests.WithLabelValues(dataset, outcome).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncReportArchive increments archived report counters.
func IncReportArchive(backend, result string) {
	if backend == "" {
		backend = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportArchiveTotal != nil {
		reportArchiveTotal.WithLabelValues(backend, result).Inc()
	}
}

// IncLogin increments login counters.
func IncLogin(result string) {
	if result == "" {
		result = "unknown"
	}
	if loginTotal != nil {
		loginTotal.WithLabelValues(result).Inc()
	}
}

// SetLiveSubscribers sets the live subscriber gauge.
func SetLiveSubscribers(count int) {
	if count < 0 {
		count = 0
	}
	if liveSubscribers != nil {
		liveSubscribers.Set(float64(count))
	}
}

// ObserveHTTPRequest records an HTTP request duration.
func ObserveHTTPRequest(route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, status).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit   = cacheHit
	CacheMiss  = cacheMiss
	CacheError = cacheError
)
