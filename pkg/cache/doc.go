// Package cache stores rendered HTTP responses and evicts them when the
// underlying resource changes.
//
// A ResponseCache is built explicitly over a Store, either the in-process
// MemoryStore or the shared RedisStore, and must be closed by its owner:
//
//	rc := cache.New(cache.NewMemoryStore(time.Minute), cache.WithLogger(logger))
//	defer rc.Close()
//
//	rc.ClearForResource(ctx, "sisters") // after a write to /api/sisters
//
// Cache failures are never returned to callers. A failing read is a miss and a
// failing write or invalidation is logged and counted in Metrics.
package cache
