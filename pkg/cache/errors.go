package cache

import "errors"

// Sentinel errors for cache operations. None of them is ever returned to an
// HTTP client: the response cache degrades every store failure to a miss.
var (
	// ErrKeyNotFound is returned when a cache key doesn't exist (not an error condition)
	ErrKeyNotFound = errors.New("cache key not found")

	// ErrStoreClosed is returned when operating on a store after Close
	ErrStoreClosed = errors.New("cache store closed")

	// ErrClientNotInitialized is returned when the Redis client is nil
	ErrClientNotInitialized = errors.New("redis client not initialized")

	// ErrConnectionFailed is returned when Redis connection cannot be established
	ErrConnectionFailed = errors.New("redis connection failed")

	// ErrSerializationFailed is returned when an entry cannot be encoded or decoded
	ErrSerializationFailed = errors.New("cache serialization failed")

	// ErrValueTooLarge is returned when a payload exceeds the configured maximum size
	ErrValueTooLarge = errors.New("cache value too large")

	// ErrChecksumMismatch is returned when a stored payload does not match its checksum
	ErrChecksumMismatch = errors.New("cache entry checksum mismatch")
)

// IsKeyNotFound checks if an error is ErrKeyNotFound
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsConnectionFailed checks if an error is ErrConnectionFailed
func IsConnectionFailed(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}
