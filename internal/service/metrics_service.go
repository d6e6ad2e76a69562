package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "classroom"

// MetricsSnapshot is a compact view of the process counters, served by the
// health probe.
type MetricsSnapshot struct {
	RequestsTotal            uint64  `json:"requestsTotal"`
	AverageRequestDurationMs float64 `json:"averageRequestDurationMs"`
	StoreOperations          uint64  `json:"storeOperations"`
	AverageStoreDurationMs   float64 `json:"averageStoreDurationMs"`
	CacheHitRatio            float64 `json:"cacheHitRatio"`
	Goroutines               int     `json:"goroutines"`
}

// MetricsService owns the Prometheus registry for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	cacheWrite      prometheus.Observer
	exportsTotal    *prometheus.CounterVec

	requestCount     uint64
	requestNanos     uint64
	storeCount       uint64
	storeNanos       uint64
	cacheHitCount    uint64
	cacheLookupCount uint64
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of document store operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by result",
	}, []string{"result"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_write_seconds",
		Help:      "Latency for cache set operations",
		Buckets:   prometheus.DefBuckets,
	})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "roster_exports_total",
		Help:      "Enrollment roster exports by format",
	}, []string{"format"})

	registry.MustRegister(
		requestDuration, requestTotal, storeDuration, cacheLookups, cacheWrite, exportsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeDuration:   storeDuration,
		cacheLookups:    cacheLookups,
		cacheWrite:      cacheWrite,
		exportsTotal:    exportsTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestNanos, uint64(duration.Nanoseconds()))
}

// ObserveDBQuery records the duration of one store operation, labelled
// "<collection>.<operation>".
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeCount, 1)
	atomic.AddUint64(&m.storeNanos, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.cacheHitCount, 1)
	}
	atomic.AddUint64(&m.cacheLookupCount, 1)
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordExport counts a rendered roster export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
}

// Snapshot aggregates the in-process counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Goroutines: runtime.NumGoroutine()}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	stores := atomic.LoadUint64(&m.storeCount)
	hits := atomic.LoadUint64(&m.cacheHitCount)
	lookups := atomic.LoadUint64(&m.cacheLookupCount)

	snap := MetricsSnapshot{
		RequestsTotal:   requests,
		StoreOperations: stores,
		Goroutines:      runtime.NumGoroutine(),
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(atomic.LoadUint64(&m.requestNanos)) / float64(requests) / float64(time.Millisecond)
	}
	if stores > 0 {
		snap.AverageStoreDurationMs = float64(atomic.LoadUint64(&m.storeNanos)) / float64(stores) / float64(time.Millisecond)
	}
	if lookups > 0 {
		snap.CacheHitRatio = float64(hits) / float64(lookups)
	}
	return snap
}
