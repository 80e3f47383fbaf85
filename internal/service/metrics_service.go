package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the
// standing cache and workflow activity.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	transitions       *prometheus.CounterVec
	bulkItems         *prometheus.CounterVec
	bulkDuration      *prometheus.HistogramVec
	recomputeDuration prometheus.Observer
	finalizeJobs      *prometheus.CounterVec
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Workflow transitions by entity kind, requested status and outcome",
	}, []string{"kind", "to", "outcome"})

	bulkItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_bulk_items_total",
		Help: "Items processed by bulk operations",
	}, []string{"operation", "outcome"})

	bulkDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_bulk_duration_seconds",
		Help:    "Duration of bulk operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	recomputeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "standing_recompute_duration_seconds",
		Help:    "Duration of academic standing recomputation",
		Buckets: prometheus.DefBuckets,
	})

	finalizeJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "standing_finalize_jobs_total",
		Help: "Standing finalisation jobs by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		transitions, bulkItems, bulkDuration, recomputeDuration, finalizeJobs, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		transitions:       transitions,
		bulkItems:         bulkItems,
		bulkDuration:      bulkDuration,
		recomputeDuration: recomputeDuration,
		finalizeJobs:      finalizeJobs,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts one transition attempt.
func (m *MetricsService) RecordTransition(kind, to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, to, outcome).Inc()
}

// RecordBulk counts the items of one bulk operation.
func (m *MetricsService) RecordBulk(operation string, success, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(operation, "success").Add(float64(success))
	m.bulkItems.WithLabelValues(operation, "failed").Add(float64(failed))
	m.bulkDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRecompute records the duration of one standing recomputation.
func (m *MetricsService) ObserveRecompute(duration time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(duration.Seconds())
}

// RecordFinalizeJob counts a finalisation job outcome.
func (m *MetricsService) RecordFinalizeJob(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failed"
	}
	m.finalizeJobs.WithLabelValues(outcome).Inc()
}
