// Package health implements on-demand probing of backend health endpoints.
//
// The checker owns no timer: invocation cadence belongs to the maintenance
// scheduler. Each refresh probes every registered backend independently and
// writes the results back into the registry.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"skyline-hq/skyway/pkg/config"
	"skyline-hq/skyway/pkg/registry"
)

// Checker probes backend health endpoints with a bounded timeout.
type Checker struct {
	registry *registry.Registry
	client   *http.Client
	path     string
	enabled  bool
}

// New creates a checker over the given registry. The probe timeout bounds
// each individual request; exceeding it counts as unhealthy.
func New(reg *registry.Registry, cfg config.HealthCheckConfig) *Checker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHealthCheckTimeout
	}
	path := cfg.Path
	if path == "" {
		path = config.DefaultHealthCheckPath
	}

	return &Checker{
		registry: reg,
		client:   &http.Client{Timeout: timeout},
		path:     path,
		enabled:  cfg.Enabled,
	}
}

// Probe issues a single health check against one backend. Network failure,
// non-2xx status, and timeout all resolve to false.
func (c *Checker) Probe(ctx context.Context, b *registry.Backend) bool {
	url := b.URL + c.path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("health probe request invalid", "backend", b.URL, "error", err)
		return false
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		slog.Debug("health probe failed", "backend", b.URL, "error", err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !healthy {
		slog.Debug("health probe unhealthy status",
			"backend", b.URL,
			"status", resp.StatusCode,
			"latency", time.Since(start),
		)
	}
	return healthy
}

// Refresh probes every registered backend and records the results. Probes
// run concurrently and failures are isolated: one backend's error never
// aborts the others. Refresh is a no-op when probing is disabled.
func (c *Checker) Refresh(ctx context.Context) {
	if !c.enabled {
		return
	}

	var wg sync.WaitGroup
	for _, b := range c.registry.All() {
		wg.Add(1)
		go func(b *registry.Backend) {
			defer wg.Done()

			wasHealthy := b.Healthy()
			healthy := c.Probe(ctx, b)
			b.SetProbeResult(healthy)

			if healthy != wasHealthy {
				slog.Info("backend health changed",
					"backend", b.URL,
					"healthy", healthy,
				)
			}
		}(b)
	}
	wg.Wait()
}

// Check is a readiness check suitable for the gateway's own health surface:
// it reports an error when no backend is healthy.
func (c *Checker) Check(ctx context.Context) error {
	if len(c.registry.Healthy()) == 0 {
		return fmt.Errorf("no healthy backends (%d registered)", c.registry.Len())
	}
	return nil
}
