package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestMemoryStore_RoundTrip tests that a write followed by a read with a
// future TTL returns the exact payload written
func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := map[string]any{"vendor": "acme", "code": "V-100"}
	if err := store.Put(ctx, Key("vendors", "acme"), payload, 24); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	raw, err := store.Get(ctx, Key("vendors", "acme"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if raw == nil {
		t.Fatal("Expected live entry, got miss")
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Payload did not round-trip as JSON: %v", err)
	}
	if decoded["vendor"] != "acme" || decoded["code"] != "V-100" {
		t.Errorf("Expected original payload back, got %v", decoded)
	}
}

// TestMemoryStore_ExpiredEntry tests that a read against an expired key
// returns nil without error
func TestMemoryStore_ExpiredEntry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Put(ctx, "rates:usd", map[string]any{"rate": 1.08}, 1)

	// Advance past the 1 hour TTL; the read must treat the entry as absent
	current = current.Add(2 * time.Hour)

	raw, err := store.Get(ctx, "rates:usd")
	if err != nil {
		t.Fatalf("Expected no error for expired read, got %v", err)
	}
	if raw != nil {
		t.Errorf("Expected nil for expired entry, got %s", raw)
	}
}

// TestMemoryStore_ExpiryBoundary tests that an entry expiring exactly at the
// read time is not returned
func TestMemoryStore_ExpiryBoundary(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Put(ctx, "k", "v", 1)
	current = current.Add(1 * time.Hour) // expiry == read time

	raw, _ := store.Get(ctx, "k")
	if raw != nil {
		t.Errorf("Expected entry at expiry boundary treated as expired, got %s", raw)
	}
}

// TestMemoryStore_Overwrite tests last-write-wins upsert semantics
func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "k", "first", 24)
	store.Put(ctx, "k", "second", 24)

	raw, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var value string
	json.Unmarshal(raw, &value)
	if value != "second" {
		t.Errorf("Expected last write to win, got %q", value)
	}
}

// TestMemoryStore_Miss tests that an absent key is a nil miss, not an error
func TestMemoryStore_Miss(t *testing.T) {
	store := NewMemoryStore()

	raw, err := store.Get(context.Background(), "never:written")
	if err != nil {
		t.Errorf("Expected no error for miss, got %v", err)
	}
	if raw != nil {
		t.Errorf("Expected nil payload for miss, got %s", raw)
	}
}
