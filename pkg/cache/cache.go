package cache

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// resourceKeyPrefix is the key prefix of every cached API read
const resourceKeyPrefix = "GET:/api/"

// ResponseCache memoizes HTTP responses in a Store and invalidates them by
// exact key, substring, regular expression or resource name.
//
// Store failures never surface: reads degrade to a miss, writes and
// invalidations are logged and counted.
type ResponseCache struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	logging LoggingConfig
}

// Option configures a ResponseCache
type Option func(*ResponseCache)

// WithLogger sets the logger used for degraded operations
func WithLogger(logger *slog.Logger) Option {
	return func(c *ResponseCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(c *ResponseCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogging controls which cache events are logged at debug level
func WithLogging(cfg LoggingConfig) Option {
	return func(c *ResponseCache) {
		c.logging = cfg
	}
}

// New creates a response cache over store. The cache owns the store and
// closes it in Close.
func New(store Store, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store:   store,
		logger:  slog.Default(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds the store selected by cfg and wraps it
func NewFromConfig(cfg *Config, logger *slog.Logger) (*ResponseCache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	metrics := NewMetrics()

	var store Store
	switch cfg.Backend {
	case BackendRedis:
		store = NewRedisStore(cfg.Redis, cfg.KeyPrefix)
	default:
		store = NewMemoryStore(cfg.CheckPeriod, WithExpiryHook(metrics.RecordExpiration))
	}

	return New(store, WithLogger(logger), WithMetrics(metrics), WithLogging(cfg.Logging)), nil
}

// Get returns the entry stored under key. Any store error is reported as a miss.
func (c *ResponseCache) Get(ctx context.Context, key string) (Entry, bool) {
	start := time.Now()
	e, err := c.store.Get(ctx, key)
	c.metrics.RecordGet(time.Since(start))

	switch {
	case err == nil:
		c.metrics.RecordCacheHit()
		if c.logging.LogCacheHits {
			c.logger.Debug("response cache hit", "key", key)
		}
		return e, true
	case IsKeyNotFound(err):
	default:
		c.metrics.RecordCacheError()
		c.logger.Warn("response cache read failed, treating as miss", "key", key, "error", err)
	}

	c.metrics.RecordCacheMiss()
	if c.logging.LogCacheMisses {
		c.logger.Debug("response cache miss", "key", key)
	}
	return Entry{}, false
}

// Set stores e. Failures are logged and otherwise ignored.
func (c *ResponseCache) Set(ctx context.Context, e Entry) {
	start := time.Now()
	err := c.store.Set(ctx, e)
	c.metrics.RecordSet(time.Since(start))
	if err != nil {
		c.metrics.RecordCacheError()
		c.logger.Warn("response cache write failed", "key", e.Key, "error", err)
	}
}

// ClearAll evicts every entry
func (c *ResponseCache) ClearAll(ctx context.Context) {
	if err := c.store.Flush(ctx); err != nil {
		c.metrics.RecordCacheError()
		c.logger.Warn("response cache flush failed", "error", err)
		return
	}
	if c.logging.LogInvalidations {
		c.logger.Info("response cache cleared")
	}
}

// ClearExact evicts a single key
func (c *ResponseCache) ClearExact(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.metrics.RecordCacheError()
		c.logger.Warn("response cache delete failed", "key", key, "error", err)
		return
	}
	c.metrics.RecordInvalidation(1)
}

// ClearContaining evicts every key containing substr. The match is literal,
// so resource names need no escaping.
func (c *ResponseCache) ClearContaining(ctx context.Context, substr string) int {
	return c.clearMatching(ctx, "contains "+substr, func(key string) bool {
		return strings.Contains(key, substr)
	})
}

// ClearByPattern evicts every key matched by re
func (c *ResponseCache) ClearByPattern(ctx context.Context, re *regexp.Regexp) int {
	if re == nil {
		return 0
	}
	return c.clearMatching(ctx, re.String(), re.MatchString)
}

// ClearForResource evicts every cached read of /api/<resource>, whatever its
// query string, as well as its sub-paths. Write paths call this after a
// successful mutation.
func (c *ResponseCache) ClearForResource(ctx context.Context, resource string) int {
	return c.ClearByPattern(ctx, ResourcePattern(resource))
}

// ResourcePattern returns the regular expression matching the cache keys of
// resource. Metacharacters in resource are escaped.
func ResourcePattern(resource string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(resourceKeyPrefix+resource) + `(?:[/?]|$)`)
}

func (c *ResponseCache) clearMatching(ctx context.Context, desc string, match func(string) bool) int {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.metrics.RecordCacheError()
		c.logger.Warn("response cache key listing failed", "pattern", desc, "error", err)
		return 0
	}

	var matched []string
	for _, key := range keys {
		if match(key) {
			matched = append(matched, key)
		}
	}
	if len(matched) == 0 {
		return 0
	}

	if err := c.store.Delete(ctx, matched...); err != nil {
		c.metrics.RecordCacheError()
		c.logger.Warn("response cache invalidation failed", "pattern", desc, "error", err)
		return 0
	}

	c.metrics.RecordInvalidation(len(matched))
	if c.logging.LogInvalidations {
		c.logger.Info("response cache invalidated", "pattern", desc, "keys", len(matched))
	}
	return len(matched)
}

// Metrics returns the cache metrics
func (c *ResponseCache) Metrics() *Metrics {
	return c.metrics
}

// Ping reports whether the store's backend is reachable. Stores without a
// remote backend always succeed.
func (c *ResponseCache) Ping(ctx context.Context) error {
	if p, ok := c.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close stops the store's background work and releases it
func (c *ResponseCache) Close() error {
	return c.store.Close()
}
