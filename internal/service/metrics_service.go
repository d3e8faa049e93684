package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/the-local-guys/testtag-api/internal/models"
)

// counters holds the atomic tallies backing Snapshot. Prometheus keeps its
// own state; these exist so the status endpoint can answer without scraping.
type counters struct {
	cacheHits    uint64
	cacheMisses  uint64
	requests     uint64
	requestNanos uint64
}

// MetricsService owns the Prometheus registry and the aggregate counters
// exposed on the status endpoint.
type MetricsService struct {
	handler http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	cacheLookup  prometheus.Histogram
	cacheWrite   prometheus.Histogram
	hitRatio     prometheus.Gauge
	hits         prometheus.Counter
	misses       prometheus.Counter

	tally counters
}

// NewMetricsService builds a registry with the collectors the API emits.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		hitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		m.httpDuration, m.httpTotal,
		m.cacheLookup, m.cacheWrite,
		m.hitRatio, m.hits, m.misses,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return m
}

// Handler exposes the Prometheus scrape handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records a completed request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
	atomic.AddUint64(&m.tally.requests, 1)
	atomic.AddUint64(&m.tally.requestNanos, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio gauge.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLookup.Observe(duration.Seconds())
	if hit {
		m.hits.Inc()
		atomic.AddUint64(&m.tally.cacheHits, 1)
	} else {
		m.misses.Inc()
		atomic.AddUint64(&m.tally.cacheMisses, 1)
	}
	if ratio, ok := ratio(atomic.LoadUint64(&m.tally.cacheHits), atomic.LoadUint64(&m.tally.cacheMisses)); ok {
		m.hitRatio.Set(ratio)
	}
}

// ObserveCacheWrite records the duration of a cache set.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot aggregates the counters for the status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.tally.cacheHits)
	misses := atomic.LoadUint64(&m.tally.cacheMisses)
	requests := atomic.LoadUint64(&m.tally.requests)
	nanos := atomic.LoadUint64(&m.tally.requestNanos)

	snap := models.SystemMetrics{
		CacheHits:     hits,
		CacheMisses:   misses,
		RequestsTotal: requests,
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
	if r, ok := ratio(hits, misses); ok {
		snap.CacheHitRatio = r
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(nanos) / float64(requests) / float64(time.Millisecond)
	}
	return snap
}

func ratio(hits, misses uint64) (float64, bool) {
	total := hits + misses
	if total == 0 {
		return 0, false
	}
	return float64(hits) / float64(total), true
}
