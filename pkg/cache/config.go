package cache

import (
	"fmt"
	"time"
)

// Backend selects the store behind the response cache
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config holds response cache configuration
type Config struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	Backend     Backend       `json:"backend" yaml:"backend"` // memory, redis
	DefaultTTL  time.Duration `json:"default_ttl" yaml:"default_ttl"`
	CheckPeriod time.Duration `json:"check_period" yaml:"check_period"` // expiry sweep interval (memory backend)
	KeyPrefix   string        `json:"key_prefix" yaml:"key_prefix"`     // namespace for shared backends

	// Redis Connection (redis backend only)
	Redis RedisConfig `json:"redis" yaml:"redis"`

	// Cache Metrics
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics"`

	// Cache Logging
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// RedisConfig holds connection settings for the redis backend
type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	Database int    `json:"database" yaml:"database"`

	// Connection Pool
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	MaxConnAge   time.Duration `json:"max_conn_age" yaml:"max_conn_age"`
	PoolTimeout  time.Duration `json:"pool_timeout" yaml:"pool_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// Performance
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// Clustering (for Redis Cluster)
	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`

	// Large Value Handling
	LargeValue LargeValueConfig `json:"large_value" yaml:"large_value"`
}

// LargeValueConfig controls how big response payloads are stored in Redis
type LargeValueConfig struct {
	MaxValueSize      int  `json:"max_value_size" yaml:"max_value_size"`         // larger payloads are not cached (bytes)
	CompressThreshold int  `json:"compress_threshold" yaml:"compress_threshold"` // gzip payloads above this size
	EnableCompression bool `json:"enable_compression" yaml:"enable_compression"`
}

// ClusterConfig for Redis Cluster setup
type ClusterConfig struct {
	Enabled   bool     `json:"enabled" yaml:"enabled"`
	Addresses []string `json:"addresses" yaml:"addresses"`
	Username  string   `json:"username" yaml:"username"`
	Password  string   `json:"password" yaml:"password"`
}

// LoggingConfig controls cache logging behavior
type LoggingConfig struct {
	LogCacheHits     bool `json:"log_cache_hits" yaml:"log_cache_hits"`
	LogCacheMisses   bool `json:"log_cache_misses" yaml:"log_cache_misses"`
	LogInvalidations bool `json:"log_invalidations" yaml:"log_invalidations"`
}

// DefaultConfig returns a cache configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     BackendMemory,
		DefaultTTL:  time.Minute * 5,
		CheckPeriod: time.Minute,
		KeyPrefix:   "recordsapi",
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Database:     0,
			PoolSize:     10,
			MinIdleConns: 3,
			MaxConnAge:   time.Hour,
			PoolTimeout:  time.Second * 4,
			IdleTimeout:  time.Minute * 5,
			ReadTimeout:  time.Second * 3,
			WriteTimeout: time.Second * 3,
			DialTimeout:  time.Second * 5,
			LargeValue: LargeValueConfig{
				MaxValueSize:      1024 * 1024 * 10, // 10MB
				CompressThreshold: 1024 * 100,       // 100KB
				EnableCompression: true,
			},
		},
		EnableMetrics: true,
		Logging: LoggingConfig{
			LogCacheHits:     false,
			LogCacheMisses:   false,
			LogInvalidations: true,
		},
	}
}

// Validate checks if the cache configuration is valid
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil // Skip validation if cache is disabled
	}

	if c.DefaultTTL <= 0 {
		return fmt.Errorf("default_ttl must be positive when cache is enabled")
	}

	switch c.Backend {
	case BackendMemory:
		if c.CheckPeriod <= 0 {
			return fmt.Errorf("check_period must be positive for the memory backend")
		}
	case BackendRedis:
		if c.Redis.IsClusterMode() {
			return nil
		}
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host is required for the redis backend")
		}
		if c.Redis.Port <= 0 {
			return fmt.Errorf("redis port must be positive")
		}
		if c.Redis.PoolSize < 1 {
			return fmt.Errorf("pool_size must be at least 1")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Backend)
	}

	return nil
}

// GetAddr returns the Redis connection address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsClusterMode returns true if Redis cluster is enabled
func (c *RedisConfig) IsClusterMode() bool {
	return c.Cluster.Enabled && len(c.Cluster.Addresses) > 0
}
