package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// This is the default backend: fast, no persistence, all data lost when the
// process exits.
//
// MemoryBackend is thread-safe and supports concurrent access using
// sync.RWMutex. When the entry count reaches MaxEntries the oldest entry by
// insertion time is evicted to make room.
type MemoryBackend struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	maxEntries int
}

// NewMemoryBackend creates an in-memory backend bounded to maxEntries.
// A non-positive maxEntries defaults to 10000.
func NewMemoryBackend(maxEntries int) *MemoryBackend {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryBackend{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
	}
}

// Get retrieves the entry for a key. Expired entries are removed and
// reported as absent.
func (m *MemoryBackend) Get(ctx context.Context, key string) (*Entry, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.Expired(time.Now()) {
		m.mu.Lock()
		// Re-check under write lock; a fresher entry may have replaced it.
		if cur, ok := m.entries[key]; ok && cur.Expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry, true, nil
}

// Put stores the entry, replacing any existing entry for the key and
// evicting the oldest entry when the backend is full.
func (m *MemoryBackend) Put(ctx context.Context, key string, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.entries[key] = entry
	return nil
}

// Has reports whether a live entry exists for the key.
func (m *MemoryBackend) Has(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// evictOldestLocked removes the entry with the earliest insertion time.
// Caller must hold the write lock.
func (m *MemoryBackend) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, entry := range m.entries {
		if first || entry.InsertedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.InsertedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
