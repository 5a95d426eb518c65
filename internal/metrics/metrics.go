// Package metrics registers the Prometheus collectors shared by the server
// and the worker. Every Observe/Inc helper is a no-op until Init runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energylog_"

	ResultSuccess = "success"
	ResultError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	recordWrites *prometheus.CounterVec

	reportTotal   *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec
	reportCache   *prometheus.CounterVec

	exportTotal *prometheus.CounterVec

	publishTotal *prometheus.CounterVec
	mirrorTotal  *prometheus.CounterVec
)

// Init creates and registers the collectors on the default registry.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status class",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		recordWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_writes_total",
				Help: "Record collection writes by operation and result",
			},
			[]string{"op", "result"},
		)
		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_compute_total",
				Help: "Statistics computations by kind and result",
			},
			[]string{"kind", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_compute_latency_seconds",
				Help:    "Statistics computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		)
		reportCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_cache_total",
				Help: "Report cache lookups by kind and outcome",
			},
			[]string{"kind", "outcome"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Report and record exports by format and result",
			},
			[]string{"format", "result"},
		)
		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "change_publish_total",
				Help: "Record change notifications by operation and result",
			},
			[]string{"op", "result"},
		)
		mirrorTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mirror_sync_total",
				Help: "Spreadsheet mirror operations by operation and result",
			},
			[]string{"op", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			recordWrites,
			reportTotal,
			reportLatency,
			reportCache,
			exportTotal,
			publishTotal,
			mirrorTotal,
		)
	})
}

func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "other"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

func IncRecordWrite(op string, err error) {
	if recordWrites != nil {
		recordWrites.WithLabelValues(op, result(err)).Inc()
	}
}

// ObserveReport records one statistics computation.
func ObserveReport(kind string, err error, duration time.Duration) {
	if reportTotal != nil {
		reportTotal.WithLabelValues(kind, result(err)).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

func IncReportCache(kind string, hit bool) {
	outcome := CacheMiss
	if hit {
		outcome = CacheHit
	}
	if reportCache != nil {
		reportCache.WithLabelValues(kind, outcome).Inc()
	}
}

func IncExport(format string, err error) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result(err)).Inc()
	}
}

func IncPublish(op string, err error) {
	if publishTotal != nil {
		publishTotal.WithLabelValues(op, result(err)).Inc()
	}
}

func IncMirror(op string, err error) {
	if mirrorTotal != nil {
		mirrorTotal.WithLabelValues(op, result(err)).Inc()
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
