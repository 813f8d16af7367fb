// Package maintenance drives the gateway's periodic upkeep: backend health
// probing and rate-limit table cleanup.
//
// Cadence lives here, not in the components; the health checker and rate
// limiter are probe-on-demand and the scheduler supplies the tick.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"skyline-hq/skyway/pkg/health"
	"skyline-hq/skyway/pkg/limits/ratelimit"
)

// Scheduler runs maintenance on a cron cadence.
type Scheduler struct {
	checker  *health.Checker
	limiter  *ratelimit.Limiter
	schedule string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler. The schedule uses robfig/cron syntax;
// "@every 30s" style descriptors are supported.
func NewScheduler(checker *health.Checker, limiter *ratelimit.Limiter, schedule string) *Scheduler {
	return &Scheduler{
		checker:  checker,
		limiter:  limiter,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start begins the scheduled maintenance and runs one immediate tick so the
// registry has health data before the first request. The scheduler stops
// when the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule maintenance %q: %w", s.schedule, err)
	}

	// Prime the registry before serving traffic.
	go s.Tick(ctx)

	s.cron.Start()
	s.running = true

	slog.Info("maintenance scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Tick runs one maintenance pass: refresh backend health, then prune idle
// rate-limit windows.
func (s *Scheduler) Tick(ctx context.Context) {
	start := time.Now()

	s.checker.Refresh(ctx)
	removed := s.limiter.Cleanup()

	slog.Debug("maintenance tick completed",
		"duration", time.Since(start),
		"rate_limit_clients_removed", removed,
	)
}

// Stop halts scheduled maintenance, waiting for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false

	slog.Info("maintenance scheduler stopped")
}
