// Package routing selects the backend for each proxied request based on
// health, region affinity, and priority.
package routing

import (
	"errors"

	"skyline-hq/skyway/pkg/registry"
)

// ErrNoBackends is returned when the registry has no backends at all.
var ErrNoBackends = errors.New("no backends configured")

// Result describes a routing decision.
type Result struct {
	// Backend is the selected backend.
	Backend *registry.Backend

	// Region is the region resolved for the request's origin hint.
	Region string

	// Degraded is true when no backend was healthy and the first
	// configured backend was returned as a last resort. Callers must
	// treat a degraded selection as a signal, not a guarantee of
	// reachability.
	Degraded bool

	// RegionMatch is true when the backend was chosen by region affinity.
	RegionMatch bool
}

// Router picks backends deterministically: no randomization, no weighted
// balancing. Among equally eligible backends, first match wins.
type Router struct {
	registry      *registry.Registry
	defaultRegion string
}

// New creates a router over the given registry.
func New(reg *registry.Registry, defaultRegion string) *Router {
	return &Router{
		registry:      reg,
		defaultRegion: defaultRegion,
	}
}

// Select picks a backend for a request originating from countryHint.
//
// Policy, in order:
//  1. No healthy backend: return the first configured backend as a
//     degraded-mode fallback.
//  2. Among healthy backends (sorted by priority, stable), prefer the
//     first whose region matches the resolved region.
//  3. Otherwise return the highest-priority healthy backend.
//
// ErrNoBackends is returned only when the registry is empty.
func (r *Router) Select(countryHint string) (Result, error) {
	region := ResolveRegion(countryHint, r.defaultRegion)

	if r.registry.Len() == 0 {
		return Result{Region: region}, ErrNoBackends
	}

	healthy := r.registry.Healthy()
	if len(healthy) == 0 {
		return Result{
			Backend:  r.registry.First(),
			Region:   region,
			Degraded: true,
		}, nil
	}

	for _, b := range healthy {
		if b.Region == region {
			return Result{
				Backend:     b,
				Region:      region,
				RegionMatch: true,
			}, nil
		}
	}

	return Result{
		Backend: healthy[0],
		Region:  region,
	}, nil
}
