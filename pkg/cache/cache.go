// Package cache implements the gateway's response cache: cacheability
// rules, request-identity keying, and best-effort storage behind a
// pluggable backend.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"skyline-hq/skyway/pkg/cache/storage"
)

// Recorder receives cache hit/miss events. The metrics collector satisfies
// this interface; a nil Recorder disables counting.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// Config contains the cache settings.
type Config struct {
	// TTL is the freshness lifetime attached to stored responses.
	TTL time.Duration

	// BypassPaths lists path prefixes that are never cached.
	BypassPaths []string
}

// Cache decides what is cacheable, looks entries up by request identity,
// and stores response snapshots. Storage errors are absorbed: caching is
// best-effort and never fatal to the request.
type Cache struct {
	backend  storage.Backend
	recorder Recorder
	config   Config
}

// New creates a cache over the given backend.
func New(backend storage.Backend, recorder Recorder, cfg Config) *Cache {
	return &Cache{
		backend:  backend,
		recorder: recorder,
		config:   cfg,
	}
}

// Key returns the canonical request identity: method plus full URL.
func Key(r *http.Request) string {
	return r.Method + " " + r.URL.String()
}

// ShouldCache reports whether the request is eligible for caching:
// GET method and a path outside every bypass prefix.
func (c *Cache) ShouldCache(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	for _, prefix := range c.config.BypassPaths {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}

// Lookup retrieves the cached response for a request, counting a hit on
// found and a miss on not-found. Requests that are not cacheable are
// neither looked up nor counted.
func (c *Cache) Lookup(ctx context.Context, r *http.Request) (*storage.Entry, bool) {
	if !c.ShouldCache(r) {
		return nil, false
	}

	entry, ok, err := c.backend.Get(ctx, Key(r))
	if err != nil {
		slog.Warn("cache lookup failed", "key", Key(r), "error", err)
		ok = false
	}

	if ok {
		if c.recorder != nil {
			c.recorder.RecordCacheHit()
		}
		return entry, true
	}
	if c.recorder != nil {
		c.recorder.RecordCacheMiss()
	}
	return nil, false
}

// Store writes a response snapshot for a cacheable request. The header and
// body are copied so the caller's response remains usable, and a
// Cache-Control max-age directive matching the TTL is attached. Backend
// errors are logged and swallowed.
func (c *Cache) Store(ctx context.Context, r *http.Request, status int, header http.Header, body []byte) {
	if !c.ShouldCache(r) {
		return
	}

	now := time.Now()
	entry := &storage.Entry{
		Status:     status,
		Header:     cloneHeader(header),
		Body:       append([]byte(nil), body...),
		InsertedAt: now,
		ExpiresAt:  now.Add(c.config.TTL),
	}
	entry.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(c.config.TTL.Seconds())))

	if err := c.backend.Put(ctx, Key(r), entry); err != nil {
		slog.Warn("cache store failed", "key", Key(r), "error", err)
	}
}

// Size returns the number of entries in the backing store, zero on error.
func (c *Cache) Size(ctx context.Context) int {
	n, err := c.backend.Len(ctx)
	if err != nil {
		return 0
	}
	return n
}

func cloneHeader(h http.Header) http.Header {
	clone := make(http.Header, len(h))
	for k, values := range h {
		clone[k] = append([]string(nil), values...)
	}
	return clone
}
