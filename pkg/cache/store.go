package cache

import "context"

// Store is the key/value backend behind ResponseCache. Implementations must
// be safe for concurrent use.
type Store interface {
	// Get returns ErrKeyNotFound when the key is absent
	Get(ctx context.Context, key string) (Entry, error)
	// Set stores e under e.Key; e.TTL <= 0 means no expiry
	Set(ctx context.Context, e Entry) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists every live key
	Keys(ctx context.Context) ([]string, error)
	Flush(ctx context.Context) error
	Close() error
}
