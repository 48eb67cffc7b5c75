package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements redisCommander over a plain map using the go-redis
// result constructors
type fakeRedis struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

// TestRedisStore_RoundTrip tests write-then-read returns the exact payload
func TestRedisStore_RoundTrip(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, "lookup")
	ctx := context.Background()

	if err := store.Put(ctx, "vendors:acme", map[string]string{"code": "V-100"}, 12); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	raw, err := store.Get(ctx, "vendors:acme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Payload did not round-trip: %v", err)
	}
	if decoded["code"] != "V-100" {
		t.Errorf("Expected code V-100, got %q", decoded["code"])
	}

	// TTL hours translate to a native Redis expiration
	if got := fake.ttls["lookup:vendors:acme"]; got != 12*time.Hour {
		t.Errorf("Expected 12h TTL, got %v", got)
	}
}

// TestRedisStore_Miss tests that redis.Nil maps to a nil miss, not an error
func TestRedisStore_Miss(t *testing.T) {
	store := NewRedisStore(newFakeRedis(), "lookup")

	raw, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Errorf("Expected no error for miss, got %v", err)
	}
	if raw != nil {
		t.Errorf("Expected nil payload for miss, got %s", raw)
	}
}

// TestRedisStore_ErrorPropagates tests that connection errors reach the caller
func TestRedisStore_ErrorPropagates(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection refused")
	store := NewRedisStore(fake, "lookup")

	_, err := store.Get(context.Background(), "k")
	if err == nil {
		t.Error("Expected storage error to propagate, got nil")
	}
}

// TestRedisStore_KeyPrefix tests namespacing inside the Redis keyspace
func TestRedisStore_KeyPrefix(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, "")

	store.Put(context.Background(), "a:b", "v", 1)
	if _, ok := fake.data["lookup:a:b"]; !ok {
		t.Errorf("Expected default prefix lookup, stored keys: %v", fake.data)
	}
}
