package cache

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ContentKind records which response path produced a cached payload, so a
// hit is replayed through the same path.
type ContentKind string

const (
	KindJSON ContentKind = "json"
	KindRaw  ContentKind = "raw"
)

// Entry is a cached HTTP response
type Entry struct {
	Key         string        `msgpack:"k"`
	Status      int           `msgpack:"s"`
	Kind        ContentKind   `msgpack:"ck"`
	ContentType string        `msgpack:"ct"`
	Payload     []byte        `msgpack:"p"`
	TTL         time.Duration `msgpack:"ttl"`
	StoredAt    time.Time     `msgpack:"at"`
	Checksum    uint64        `msgpack:"sum"`
	Compressed  bool          `msgpack:"z,omitempty"` // payload is gzipped at rest
}

// NewEntry builds an entry and stamps its payload checksum
func NewEntry(key string, status int, kind ContentKind, contentType string, payload []byte, ttl time.Duration) Entry {
	return Entry{
		Key:         key,
		Status:      status,
		Kind:        kind,
		ContentType: contentType,
		Payload:     payload,
		TTL:         ttl,
		StoredAt:    time.Now(),
		Checksum:    xxhash.Sum64(payload),
	}
}

// Verify checks the payload against its checksum. The checksum covers the
// uncompressed payload.
func (e Entry) Verify() error {
	if sum := xxhash.Sum64(e.Payload); sum != e.Checksum {
		return fmt.Errorf("%w: key %q", ErrChecksumMismatch, e.Key)
	}
	return nil
}
