// Package recordsapi provides injection-safe list queries over GORM and an
// HTTP response cache with resource-scoped invalidation.
package recordsapi

import (
	"log/slog"

	"github.com/ammar0144/recordsapi/pkg/cache"
	"github.com/ammar0144/recordsapi/pkg/db"
	"github.com/ammar0144/recordsapi/pkg/httpcache"
	"github.com/ammar0144/recordsapi/pkg/query"
	"github.com/ammar0144/recordsapi/pkg/repository"
)

// Config represents database configuration
type Config = db.Config

// CacheConfig represents response cache configuration
type CacheConfig = cache.Config

// Entity interface that all repository entities must implement
type Entity = repository.Entity

// Request is a parsed list request
type Request = query.Request

// NewManager creates a new database manager
func NewManager(config *Config, logger *slog.Logger) (*db.Manager, error) {
	return db.NewManager(config, logger)
}

// NewResponseCache creates the response cache selected by config
func NewResponseCache(config *CacheConfig, logger *slog.Logger) (*cache.ResponseCache, error) {
	return cache.NewFromConfig(config, logger)
}

// NewRepository creates a repository for T. If rc is nil, writes do not
// invalidate any cached responses.
func NewRepository[T Entity](manager *db.Manager, rc *cache.ResponseCache, opts repository.Options, logger *slog.Logger) repository.Repository[T] {
	var inv repository.Invalidator
	if rc != nil {
		inv = rc
	}
	return repository.NewGenericRepository[T](manager, inv, opts, logger)
}

// NewCacheMiddleware wraps rc for use in an HTTP handler chain
func NewCacheMiddleware(rc *cache.ResponseCache, logger *slog.Logger) *httpcache.Middleware {
	return httpcache.New(rc, logger)
}

// ParseRequest decodes filters, sort, pagination and joins from a raw query string
func ParseRequest(rawQuery string) (Request, error) {
	return query.ParseRequest(rawQuery)
}
