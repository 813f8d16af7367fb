// Package registry holds the process-wide backend pool shared by the health
// checker and the router.
package registry

import (
	"sort"
	"sync"
	"time"

	"skyline-hq/skyway/pkg/config"
)

// Backend describes a single upstream backend and its runtime health.
//
// Health is two-tier: ProbedHealthy is the authoritative result of the last
// periodic probe, while Tripped is a fast pessimistic mark set when a forward
// attempt fails. A backend is considered healthy only when it is probed
// healthy and not tripped; a subsequent successful probe clears the trip.
type Backend struct {
	// URL is the backend base URL and its identity.
	URL string

	// Priority orders backends for selection; lower is preferred.
	Priority int

	// Region is the geographic region tag used for affinity routing.
	Region string

	mu            sync.RWMutex
	probedHealthy bool
	tripped       bool
	lastProbeAt   time.Time
}

// Healthy reports whether the backend is currently usable: probed healthy
// and not circuit-tripped.
func (b *Backend) Healthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.probedHealthy && !b.tripped
}

// SetProbeResult records the outcome of a health probe. A successful probe
// clears any circuit trip so forward-failure marks decay automatically.
func (b *Backend) SetProbeResult(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probedHealthy = healthy
	b.lastProbeAt = time.Now()
	if healthy {
		b.tripped = false
	}
}

// Trip marks the backend unusable after a forward failure. The mark is
// pessimistic and corrected by the next successful probe.
func (b *Backend) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = true
}

// Tripped reports whether the backend is circuit-tripped.
func (b *Backend) Tripped() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tripped
}

// LastProbeAt returns the time of the most recent probe, zero if never
// probed.
func (b *Backend) LastProbeAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastProbeAt
}

// BackendStatus is an immutable snapshot of one backend for read models.
type BackendStatus struct {
	URL      string `json:"url"`
	Healthy  bool   `json:"healthy"`
	Priority int    `json:"priority"`
	Region   string `json:"region"`
}

// Registry is the ordered, process-lifetime collection of backends.
// The set of backends is fixed at construction; only per-backend health
// state mutates afterwards.
type Registry struct {
	backends []*Backend
}

// New builds a registry from the configured backend list, preserving
// configuration order. Backends start unprobed (unhealthy) until the first
// refresh unless markHealthy is set.
func New(configs []config.BackendConfig, markHealthy bool) *Registry {
	backends := make([]*Backend, 0, len(configs))
	for _, c := range configs {
		b := &Backend{
			URL:      c.URL,
			Priority: c.Priority,
			Region:   c.Region,
		}
		b.probedHealthy = markHealthy
		backends = append(backends, b)
	}
	return &Registry{backends: backends}
}

// All returns the backends in registration order. The returned slice must
// not be modified.
func (r *Registry) All() []*Backend {
	return r.backends
}

// First returns the first configured backend, or nil if the registry is
// empty. It is the degraded-mode fallback when nothing is healthy.
func (r *Registry) First() *Backend {
	if len(r.backends) == 0 {
		return nil
	}
	return r.backends[0]
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.backends)
}

// Healthy returns the currently healthy backends sorted ascending by
// priority. The sort is stable, so registration order breaks ties.
func (r *Registry) Healthy() []*Backend {
	healthy := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		if b.Healthy() {
			healthy = append(healthy, b)
		}
	}
	sort.SliceStable(healthy, func(i, j int) bool {
		return healthy[i].Priority < healthy[j].Priority
	})
	return healthy
}

// Lookup returns the backend with the given URL, or nil.
func (r *Registry) Lookup(url string) *Backend {
	for _, b := range r.backends {
		if b.URL == url {
			return b
		}
	}
	return nil
}

// Snapshot returns the status of every backend in registration order,
// for the /health read model.
func (r *Registry) Snapshot() []BackendStatus {
	statuses := make([]BackendStatus, 0, len(r.backends))
	for _, b := range r.backends {
		statuses = append(statuses, BackendStatus{
			URL:      b.URL,
			Healthy:  b.Healthy(),
			Priority: b.Priority,
			Region:   b.Region,
		})
	}
	return statuses
}
