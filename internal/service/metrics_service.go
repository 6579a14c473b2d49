package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lgdark7/timetable/internal/models"
)

// Generation outcomes recorded by ObserveGeneration.
const (
	GenerationOutcomeSuccess       = "success"
	GenerationOutcomeEmpty         = "empty"
	GenerationOutcomeUnsatisfiable = "unsatisfiable"
	GenerationOutcomeError         = "error"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	generationRuns     *prometheus.CounterVec
	generationDuration prometheus.Observer
	generationAttempts prometheus.Observer
	moveOutcomes       *prometheus.CounterVec
	substitutions      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	generationCount      uint64
	generationFailures   uint64
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

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Timetable generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of timetable generation runs",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	generationAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_attempts",
		Help:    "Shuffled attempts used per generation run",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})

	moveOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_moves_total",
		Help: "Manual timetable moves by outcome",
	}, []string{"outcome"})

	substitutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_substitutions_total",
		Help: "Sessions handled during leave approval by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		generationRuns, generationDuration, generationAttempts, moveOutcomes, substitutions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		generationRuns:     generationRuns,
		generationDuration: generationDuration,
		generationAttempts: generationAttempts,
		moveOutcomes:       moveOutcomes,
		substitutions:      substitutions,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
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

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveGeneration records one generation run.
func (m *MetricsService) ObserveGeneration(outcome string, attempts int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	if attempts > 0 {
		m.generationAttempts.Observe(float64(attempts))
	}
	atomic.AddUint64(&m.generationCount, 1)
	if outcome != GenerationOutcomeSuccess {
		atomic.AddUint64(&m.generationFailures, 1)
	}
}

// ObserveMove records whether a manual move was applied or rejected.
func (m *MetricsService) ObserveMove(applied bool) {
	if m == nil {
		return
	}
	outcome := "conflict"
	if applied {
		outcome = "applied"
	}
	m.moveOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveSubstitutions records covered and uncovered sessions of one leave approval.
func (m *MetricsService) ObserveSubstitutions(covered, uncovered int) {
	if m == nil {
		return
	}
	m.substitutions.WithLabelValues("covered").Add(float64(covered))
	m.substitutions.WithLabelValues("uncovered").Add(float64(uncovered))
}

// Snapshot returns aggregated counters for quick inspection.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		GenerationRuns:           atomic.LoadUint64(&m.generationCount),
		GenerationFailures:       atomic.LoadUint64(&m.generationFailures),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
