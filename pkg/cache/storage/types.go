package storage

import (
	"context"
	"net/http"
	"time"
)

// Entry is a cached response snapshot keyed by request identity.
type Entry struct {
	// Status is the response status code.
	Status int

	// Header is the response header snapshot.
	Header http.Header

	// Body is the response body snapshot.
	Body []byte

	// InsertedAt is when the entry was written.
	InsertedAt time.Time

	// ExpiresAt is when the entry stops being served. Zero means no expiry
	// is enforced by the store.
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Backend defines the interface for cache entry persistence.
// Implementations must be safe for concurrent use. A Get after a Put for
// the same key observes the latest write (last-write-wins).
type Backend interface {
	// Get retrieves the entry for a key. The second return value is false
	// when the key is absent or the entry has expired.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Put stores the entry for a key, replacing any existing entry.
	Put(ctx context.Context, key string, entry *Entry) error

	// Has reports whether a live entry exists for the key.
	Has(ctx context.Context, key string) (bool, error)

	// Len returns the number of stored entries, including any not yet
	// evicted expired ones.
	Len(ctx context.Context) (int, error)

	// Close releases resources held by the backend.
	Close() error
}
