package cache

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks cache performance statistics
type Metrics struct {
	// Cache hit/miss counters
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	cacheErrors atomic.Uint64

	// Operation counters
	getOperations atomic.Uint64
	setOperations atomic.Uint64

	// Timing metrics (in nanoseconds)
	totalGetLatency atomic.Uint64
	totalSetLatency atomic.Uint64

	// Eviction metrics
	invalidatedKeys atomic.Uint64
	expiredKeys     atomic.Uint64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCacheHit increments cache hit counter
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss increments cache miss counter
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordCacheError increments cache error counter
func (m *Metrics) RecordCacheError() {
	m.cacheErrors.Add(1)
}

// RecordGet records a get operation with latency
func (m *Metrics) RecordGet(duration time.Duration) {
	m.getOperations.Add(1)
	m.totalGetLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordSet records a set operation with latency
func (m *Metrics) RecordSet(duration time.Duration) {
	m.setOperations.Add(1)
	m.totalSetLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordInvalidation adds n explicitly evicted keys
func (m *Metrics) RecordInvalidation(n int) {
	if n > 0 {
		m.invalidatedKeys.Add(uint64(n))
	}
}

// RecordExpiration adds n keys removed by the expiry sweep
func (m *Metrics) RecordExpiration(n int) {
	if n > 0 {
		m.expiredKeys.Add(uint64(n))
	}
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	getOps := m.getOperations.Load()
	setOps := m.setOperations.Load()

	var avgGetLatency, avgSetLatency time.Duration
	if getOps > 0 {
		avgGetLatency = time.Duration(m.totalGetLatency.Load() / getOps)
	}
	if setOps > 0 {
		avgSetLatency = time.Duration(m.totalSetLatency.Load() / setOps)
	}

	return MetricsSnapshot{
		CacheHits:       hits,
		CacheMisses:     misses,
		CacheErrors:     m.cacheErrors.Load(),
		CacheHitRate:    hitRate,
		GetOperations:   getOps,
		SetOperations:   setOps,
		AvgGetLatency:   avgGetLatency,
		AvgSetLatency:   avgSetLatency,
		InvalidatedKeys: m.invalidatedKeys.Load(),
		ExpiredKeys:     m.expiredKeys.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	// Cache metrics
	CacheHits    uint64
	CacheMisses  uint64
	CacheErrors  uint64
	CacheHitRate float64 // Percentage

	// Operation counts
	GetOperations uint64
	SetOperations uint64

	// Latency metrics
	AvgGetLatency time.Duration
	AvgSetLatency time.Duration

	// Eviction metrics
	InvalidatedKeys uint64
	ExpiredKeys     uint64
}

// Collector exposes Metrics to Prometheus. Values are read from the atomic
// counters on every scrape.
type Collector struct {
	metrics *Metrics

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	errors      *prometheus.Desc
	sets        *prometheus.Desc
	invalidated *prometheus.Desc
	expired     *prometheus.Desc
}

// NewCollector creates a Prometheus collector for m
func NewCollector(namespace string, m *Metrics) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "response_cache", name), help, nil, nil)
	}
	return &Collector{
		metrics:     m,
		hits:        desc("hits_total", "Cached responses replayed."),
		misses:      desc("misses_total", "Requests that missed the cache."),
		errors:      desc("errors_total", "Store failures degraded to a miss."),
		sets:        desc("sets_total", "Responses written to the cache."),
		invalidated: desc("invalidated_keys_total", "Keys removed by explicit invalidation."),
		expired:     desc("expired_keys_total", "Keys removed by the expiry sweep."),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.errors
	ch <- c.sets
	ch <- c.invalidated
	ch <- c.expired
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.metrics.GetSnapshot()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.CacheMisses))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.CacheErrors))
	ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue, float64(s.SetOperations))
	ch <- prometheus.MustNewConstMetric(c.invalidated, prometheus.CounterValue, float64(s.InvalidatedKeys))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(s.ExpiredKeys))
}
