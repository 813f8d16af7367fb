package ratelimit

import (
	"sync"
	"time"
)

// Limiter provides per-client sliding-window admission control.
//
// For each client it keeps the timestamps of admitted requests that are
// still inside the window. A request is admitted iff, after pruning expired
// timestamps, fewer than RequestsPerWindow remain; denied requests are not
// recorded.
//
// # Thread Safety
//
// Admission is a check-then-act over per-client state, so each client window
// carries its own mutex and the prune/count/append sequence runs under it.
// Two concurrent admissions for the same client therefore serialize and the
// limit is never transiently exceeded. Contention is limited to same-client
// interleaving; distinct clients never block each other beyond the shard map
// lookup.
type Limiter struct {
	config Config

	// clock is overridable for tests.
	clock func() time.Time

	mu      sync.RWMutex
	windows map[string]*clientWindow
}

// clientWindow holds the admitted-request timestamps for one client.
type clientWindow struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// NewLimiter creates a limiter with the given configuration.
func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		config:  cfg,
		clock:   time.Now,
		windows: make(map[string]*clientWindow),
	}
}

// Admit decides whether a request from clientID may proceed and, if so,
// records it. An empty clientID maps to the shared UnknownClient bucket.
func (l *Limiter) Admit(clientID string) Decision {
	if !l.config.Enabled {
		return Decision{Allowed: true, Limit: l.config.RequestsPerWindow}
	}
	if clientID == "" {
		clientID = UnknownClient
	}

	now := l.clock()
	w := l.window(clientID)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now.Add(-l.config.Window))

	if len(w.timestamps) >= l.config.RequestsPerWindow {
		// Oldest surviving timestamp determines when a slot frees up.
		retryAfter := w.timestamps[0].Add(l.config.Window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{
			Allowed:    false,
			Limit:      l.config.RequestsPerWindow,
			Remaining:  0,
			RetryAfter: retryAfter,
		}
	}

	w.timestamps = append(w.timestamps, now)
	return Decision{
		Allowed:   true,
		Limit:     l.config.RequestsPerWindow,
		Remaining: l.config.RequestsPerWindow - len(w.timestamps),
	}
}

// Cleanup removes clients whose windows are empty after pruning, bounding
// memory to active clients. Invoked by the periodic maintenance tick.
// It returns the number of clients removed.
func (l *Limiter) Cleanup() int {
	if !l.config.Enabled {
		return 0
	}

	cutoff := l.clock().Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, w := range l.windows {
		w.mu.Lock()
		w.prune(cutoff)
		empty := len(w.timestamps) == 0
		w.mu.Unlock()

		if empty {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of clients currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// window returns the client's window, creating it on first request.
func (l *Limiter) window(clientID string) *clientWindow {
	l.mu.RLock()
	w, ok := l.windows[clientID]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[clientID]; ok {
		return w
	}
	w = &clientWindow{}
	l.windows[clientID] = w
	return w
}

// prune drops timestamps at or before cutoff. Caller must hold w.mu.
func (w *clientWindow) prune(cutoff time.Time) {
	i := 0
	for i < len(w.timestamps) && !w.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[i:]...)
	}
}
