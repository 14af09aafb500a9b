// Package metrics provides Prometheus metrics for the SkillBridge match
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the match engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ranking metrics - the core business signal.
	matchRequests     prometheus.Counter
	compareRequests   prometheus.Counter
	rankLatency       prometheus.Histogram
	scoringLatency    prometheus.Histogram
	matchTypes        *prometheus.CounterVec
	compatibilityDist prometheus.Histogram

	// Cache metrics.
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	cacheSets         prometheus.Counter
	cacheEvictions    prometheus.Counter
	cacheFallbackOps  prometheus.Counter
	cacheBreakerState *prometheus.GaugeVec
	fallbackCacheSize prometheus.Gauge

	// Invalidation pipeline metrics.
	invalidations         prometheus.Counter
	invalidationQueueSize prometheus.Gauge
	invalidationOverflows prometheus.Counter

	// System metrics.
	systemGoroutineCount prometheus.Gauge
	systemMemoryUsage    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillbridge",
		subsystem:        "match",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.matchRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Total ranked-match requests served",
	})
	m.compareRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compare_requests_total",
		Help:      "Total single-pair compatibility requests served",
	})
	m.rankLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_latency_milliseconds",
		Help:      "Latency of ranking a full candidate pool",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Latency of scoring one candidate pair",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
	m.matchTypes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_types_total",
		Help:      "Distribution of match-type classifications",
	}, []string{"match_type"})
	m.compatibilityDist = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compatibility_score",
		Help:      "Distribution of computed compatibility scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Cache hits across all namespaces",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Cache misses across all namespaces",
	})
	m.cacheSets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_sets_total",
		Help:      "Cache writes across all namespaces",
	})
	m.cacheEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_evictions_total",
		Help:      "Entries evicted from the in-process fallback cache",
	})
	m.cacheFallbackOps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_fallback_ops_total",
		Help:      "Operations degraded to the fallback backend",
	})
	m.cacheBreakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_breaker_state",
		Help:      "Circuit breaker state (1 for the active state's label)",
	}, []string{"state"})
	m.fallbackCacheSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fallback_cache_size",
		Help:      "Entries currently held by the fallback cache",
	})

	m.invalidations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "invalidations_total",
		Help:      "Per-user cache invalidations applied",
	})
	m.invalidationQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "invalidation_queue_size",
		Help:      "Pending invalidation events",
	})
	m.invalidationOverflows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "invalidation_overflows_total",
		Help:      "Invalidations applied synchronously because the queue was full",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})
}

// RecordMatchRequest increments the ranked-match request counter.
func RecordMatchRequest() {
	globalManager.matchRequests.Inc()
}

// RecordCompareRequest increments the single-pair request counter.
func RecordCompareRequest() {
	globalManager.compareRequests.Inc()
}

// RecordRankLatency records full-pool ranking latency in milliseconds.
func RecordRankLatency(latencyMs float64) {
	globalManager.rankLatency.Observe(latencyMs)
}

// RecordScoringLatency records pairwise scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordMatchType counts one match-type classification.
func RecordMatchType(matchType string) {
	globalManager.matchTypes.WithLabelValues(matchType).Inc()
}

// RecordCompatibilityScore records a computed score for distribution tracking.
func RecordCompatibilityScore(score int) {
	globalManager.compatibilityDist.Observe(float64(score))
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheSet increments the cache write counter.
func RecordCacheSet() {
	globalManager.cacheSets.Inc()
}

// RecordCacheEvictions adds to the fallback eviction counter.
func RecordCacheEvictions(count int) {
	globalManager.cacheEvictions.Add(float64(count))
}

// RecordCacheFallback counts one operation degraded to the fallback backend.
func RecordCacheFallback() {
	globalManager.cacheFallbackOps.Inc()
}

// UpdateCacheBreakerState marks the active breaker state.
func UpdateCacheBreakerState(state string) {
	for _, s := range []string{"closed", "half-open", "open"} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		globalManager.cacheBreakerState.WithLabelValues(s).Set(value)
	}
}

// UpdateFallbackCacheSize sets the fallback cache entry gauge.
func UpdateFallbackCacheSize(size int) {
	globalManager.fallbackCacheSize.Set(float64(size))
}

// RecordInvalidation counts one applied invalidation.
func RecordInvalidation() {
	globalManager.invalidations.Inc()
}

// UpdateInvalidationQueueSize sets the pending invalidation gauge.
func UpdateInvalidationQueueSize(size int) {
	globalManager.invalidationQueueSize.Set(float64(size))
}

// RecordInvalidationOverflow counts a full-queue synchronous fallback.
func RecordInvalidationOverflow() {
	globalManager.invalidationOverflows.Inc()
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// GetRegistry returns the custom registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
