// Package cache provides the persisted lookup cache. This file implements
// the Redis-backed store, where entry expiry is delegated to Redis key TTLs
// so the "not yet expired" predicate runs inside the GET itself.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCommander abstracts the minimal Redis surface the store needs.
// Implementations may wrap *redis.Client or any equivalent; tests use the
// go-redis result constructors to fake it.
type redisCommander interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps cache entries as Redis string values with native TTLs.
// Redis removes expired keys itself, so a GET can only ever observe a live
// entry, matching the storage-side expiry invariant of the warehouse store.
type RedisStore struct {
	client redisCommander
	prefix string
}

// NewRedisStore creates a store over an existing Redis client. The prefix
// namespaces cache keys away from other users of the same Redis database.
func NewRedisStore(client redisCommander, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "lookup"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects a go-redis client for the given address and wraps it in
// a store. The connection is verified lazily on first use.
func DialRedis(addr, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return NewRedisStore(client, prefix)
}

// storageKey namespaces the cache key inside Redis.
func (s *RedisStore) storageKey(key string) string {
	return s.prefix + ":" + key
}

// Get returns the payload for key, or nil when the key is absent or Redis
// has already expired it. Connection errors propagate.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	raw, err := s.client.Get(ctx, s.storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		recordMiss("redis")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup for %q failed: %w", key, err)
	}

	recordHit("redis")
	return json.RawMessage(raw), nil
}

// Put stores the payload under key with a TTL of ttlHours. SET overwrites
// any existing value and TTL, giving the same last-write-wins behavior as
// the warehouse upsert.
func (s *RedisStore) Put(ctx context.Context, key string, payload any, ttlHours int) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize cache payload for %q: %w", key, err)
	}

	ttl := time.Duration(ttlHours) * time.Hour
	if err := s.client.Set(ctx, s.storageKey(key), []byte(raw), ttl).Err(); err != nil {
		return fmt.Errorf("cache upsert for %q failed: %w", key, err)
	}
	return nil
}
