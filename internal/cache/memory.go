// Package cache provides the persisted lookup cache. This file implements
// the in-memory store used by tests and by dependency-free local runs of
// the daemon.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// memoryEntry is one stored payload with its expiry and bookkeeping.
type memoryEntry struct {
	payload      json.RawMessage
	expiresAt    time.Time
	createdAt    time.Time
	hitCount     int64
	lastAccessed time.Time
}

// MemoryStore keeps entries in a process-local map. The expiry comparison
// runs inside Get, mirroring the storage-predicate semantics of the real
// backends: an entry whose expiry is at or before the read time is treated
// as absent, never returned.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	// now is injectable so tests can place expiries in the past or future.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Get returns the payload for key if it exists and is still live at read
// time, nil otherwise.
func (s *MemoryStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !entry.expiresAt.After(s.now()) {
		recordMiss("memory")
		return nil, nil
	}

	entry.hitCount++
	entry.lastAccessed = s.now()
	recordHit("memory")
	return entry.payload, nil
}

// Put overwrites the entry for key with a fresh expiry of now + ttlHours.
// created_at is preserved across overwrites like the warehouse upsert.
func (s *MemoryStore) Put(ctx context.Context, key string, payload any, ttlHours int) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	createdAt := now
	if existing, ok := s.entries[key]; ok {
		createdAt = existing.createdAt
	}
	s.entries[key] = &memoryEntry{
		payload:   raw,
		expiresAt: now.Add(time.Duration(ttlHours) * time.Hour),
		createdAt: createdAt,
	}
	return nil
}
