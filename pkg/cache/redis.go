package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// scanBatchSize is the COUNT hint for SCAN iterations
const scanBatchSize = 100

// RedisStore keeps entries in Redis so several processes share one cache.
// Entries are msgpack-encoded and expire through Redis' own TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	large  LargeValueConfig
}

// NewRedisStore creates a Redis-backed store from cfg. keyPrefix namespaces
// every key so SCAN never touches foreign data.
func NewRedisStore(cfg RedisConfig, keyPrefix string) *RedisStore {
	var client redis.UniversalClient
	if cfg.IsClusterMode() {
		// Redis Cluster configuration
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.Cluster.Addresses,
			Username:        cfg.Cluster.Username,
			Password:        cfg.Cluster.Password,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: cfg.MaxConnAge,
			PoolTimeout:     cfg.PoolTimeout,
			ConnMaxIdleTime: cfg.IdleTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			DialTimeout:     cfg.DialTimeout,
		})
	} else {
		// Single Redis instance configuration
		client = redis.NewClient(&redis.Options{
			Addr:            cfg.GetAddr(),
			Password:        cfg.Password,
			DB:              cfg.Database,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: cfg.MaxConnAge,
			PoolTimeout:     cfg.PoolTimeout,
			ConnMaxIdleTime: cfg.IdleTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			DialTimeout:     cfg.DialTimeout,
		})
	}
	return NewRedisStoreWithClient(client, keyPrefix, cfg.LargeValue)
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string, large LargeValueConfig) *RedisStore {
	prefix := ""
	if keyPrefix != "" {
		prefix = keyPrefix + ":"
	}
	return &RedisStore{client: client, prefix: prefix, large: large}
}

// Ping tests the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrClientNotInitialized
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + key
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	if s.client == nil {
		return Entry{}, ErrClientNotInitialized
	}

	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrKeyNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis get error: %w", err)
	}

	return decodeEntry(data)
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, e Entry) error {
	if s.client == nil {
		return ErrClientNotInitialized
	}

	data, err := encodeEntry(e, s.large)
	if err != nil {
		return err
	}

	ttl := e.TTL
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.redisKey(e.Key), data, ttl).Err()
}

// Delete implements Store
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if s.client == nil {
		return ErrClientNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}

	// one DEL per key keeps cluster deployments clear of CROSSSLOT errors
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Del(ctx, s.redisKey(k))
		}
		return nil
	})
	return err
}

// Keys implements Store. It uses SCAN instead of KEYS so the server is never
// blocked; in cluster mode every master is scanned.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrClientNotInitialized
	}

	cluster, ok := s.client.(*redis.ClusterClient)
	if !ok {
		return s.scan(ctx, s.client)
	}

	var mu sync.Mutex
	var keys []string
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		nodeKeys, err := s.scan(ctx, node)
		if err != nil {
			return err
		}
		mu.Lock()
		keys = append(keys, nodeKeys...)
		mu.Unlock()
		return nil
	})
	return keys, err
}

func (s *RedisStore) scan(ctx context.Context, client redis.Cmdable) ([]string, error) {
	var keys []string
	var cursor uint64
	match := escapeGlob(s.prefix) + "*"
	for {
		batch, next, err := client.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys with pattern %s: %w", match, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}

		// cursor == 0 means we've iterated through all keys
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// Flush implements Store. Only keys under the store prefix are removed.
func (s *RedisStore) Flush(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for len(keys) > 0 {
		n := min(len(keys), scanBatchSize)
		if err := s.Delete(ctx, keys[:n]...); err != nil {
			return fmt.Errorf("failed to delete batch: %w", err)
		}
		keys = keys[n:]
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// encodeEntry serializes e, gzipping the payload when it is above the
// compression threshold and the result is smaller.
func encodeEntry(e Entry, large LargeValueConfig) ([]byte, error) {
	if large.MaxValueSize > 0 && len(e.Payload) > large.MaxValueSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d bytes", ErrValueTooLarge, len(e.Payload), large.MaxValueSize)
	}

	if large.EnableCompression && large.CompressThreshold > 0 && len(e.Payload) > large.CompressThreshold {
		compressed, err := compressData(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		if len(compressed) < len(e.Payload) {
			e.Payload = compressed
			e.Compressed = true
		}
	}

	data, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	if e.Compressed {
		payload, err := decompressData(e.Payload)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		e.Payload = payload
		e.Compressed = false
	}
	if err := e.Verify(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressData(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// escapeGlob escapes the glob metacharacters understood by SCAN MATCH
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
