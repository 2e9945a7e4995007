package cache

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type memoryItem struct {
	entry     Entry
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process store. Expired entries are removed by a
// background sweep every checkPeriod; reads do not look at timestamps, so an
// entry may outlive its TTL by up to one period.
type MemoryStore struct {
	items       *xsync.MapOf[string, memoryItem]
	checkPeriod time.Duration
	onExpire    func(n int)

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithExpiryHook registers fn to receive the number of entries removed by
// each sweep.
func WithExpiryHook(fn func(n int)) MemoryOption {
	return func(s *MemoryStore) {
		s.onExpire = fn
	}
}

// NewMemoryStore creates a store and starts its expiry sweep. Call Close to
// stop the sweep.
func NewMemoryStore(checkPeriod time.Duration, opts ...MemoryOption) *MemoryStore {
	if checkPeriod <= 0 {
		checkPeriod = time.Minute
	}
	s := &MemoryStore{
		items:       xsync.NewMapOf[string, memoryItem](),
		checkPeriod: checkPeriod,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		closed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

func (s *MemoryStore) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.checkPeriod)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			n := s.sweep(now)
			if s.onExpire != nil {
				s.onExpire(n)
			}
		case <-s.stop:
			return
		}
	}
}

// sweep removes every entry that expired at or before now
func (s *MemoryStore) sweep(now time.Time) int {
	removed := 0
	s.items.Range(func(key string, item memoryItem) bool {
		if item.expiresAt.IsZero() || now.Before(item.expiresAt) {
			return true
		}
		// re-check under the bucket lock so a concurrent Set is not lost
		s.items.Compute(key, func(current memoryItem, loaded bool) (memoryItem, bool) {
			if !loaded {
				return current, true
			}
			if !current.expiresAt.IsZero() && !now.Before(current.expiresAt) {
				removed++
				return current, true
			}
			return current, false
		})
		return true
	})
	return removed
}

func (s *MemoryStore) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	if s.isClosed() {
		return Entry{}, ErrStoreClosed
	}
	item, ok := s.items.Load(key)
	if !ok {
		return Entry{}, ErrKeyNotFound
	}
	return item.entry, nil
}

// Set implements Store
func (s *MemoryStore) Set(_ context.Context, e Entry) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	item := memoryItem{entry: e}
	if e.TTL > 0 {
		item.expiresAt = time.Now().Add(e.TTL)
	}
	s.items.Store(e.Key, item)
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	for _, key := range keys {
		s.items.Delete(key)
	}
	return nil
}

// Keys implements Store
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	keys := make([]string, 0, s.items.Size())
	s.items.Range(func(key string, _ memoryItem) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

// Flush implements Store
func (s *MemoryStore) Flush(_ context.Context) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	s.items.Clear()
	return nil
}

// Len returns the number of stored entries, expired or not
func (s *MemoryStore) Len() int {
	return s.items.Size()
}

// Close stops the expiry sweep and drops every entry
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.stop)
		<-s.done
		s.items.Clear()
	})
	return nil
}
