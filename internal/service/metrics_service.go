package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the search
// gateway.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scanDuration    prometheus.Observer
	resultCounts    *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheHitRatio   prometheus.Gauge
	historyOps      *prometheus.CounterVec
	sourceLoad      prometheus.Observer

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_scan_duration_seconds",
		Help:    "Duration of full timetable scans",
		Buckets: prometheus.DefBuckets,
	})

	resultCounts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_result_count",
		Help:    "Number of results returned per entity kind",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	}, []string{"kind"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Total result cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Total result cache misses",
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "search_cache_hit_ratio",
		Help: "Ratio of result cache hits to total lookups",
	})

	historyOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "search_history_operations_total",
		Help: "History mutations by operation",
	}, []string{"op"})

	sourceLoad := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_source_load_seconds",
		Help:    "Duration of timetable source loads",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scanDuration, resultCounts, cacheHits, cacheMisses, cacheHitRatio, historyOps, sourceLoad, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scanDuration:    scanDuration,
		resultCounts:    resultCounts,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheHitRatio:   cacheHitRatio,
		historyOps:      historyOps,
		sourceLoad:      sourceLoad,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveScan records the duration of a timetable scan and the size of its
// result lists.
func (m *MetricsService) ObserveScan(duration time.Duration, teachers, classes, subjects int) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(duration.Seconds())
	m.resultCounts.WithLabelValues("teachers").Observe(float64(teachers))
	m.resultCounts.WithLabelValues("classes").Observe(float64(classes))
	m.resultCounts.WithLabelValues("subjects").Observe(float64(subjects))
}

// RecordCacheLookup records a result cache hit or miss and updates the ratio.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordHistoryOp counts a history mutation by operation name.
func (m *MetricsService) RecordHistoryOp(op string) {
	if m == nil {
		return
	}
	m.historyOps.WithLabelValues(op).Inc()
}

// ObserveSourceLoad records the duration of a timetable source load.
func (m *MetricsService) ObserveSourceLoad(duration time.Duration) {
	if m == nil {
		return
	}
	m.sourceLoad.Observe(duration.Seconds())
}
