// Package metrics provides the gateway's traffic counters.
//
// Counters are kept twice: as atomic integers backing the JSON /health and
// /metrics read models, and as Prometheus metrics for scraping. The atomic
// counters are monotonic and reset only by process restart.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains the collector settings.
type Config struct {
	// Enabled controls whether Prometheus metrics are recorded. The atomic
	// snapshot counters are always maintained; the read models depend on
	// them.
	Enabled bool

	// Namespace is the Prometheus metric namespace.
	Namespace string

	// Subsystem is the Prometheus metric subsystem.
	Subsystem string
}

// Snapshot is the read-model view of the counters.
type Snapshot struct {
	TotalRequests     int64 `json:"totalRequests"`
	CacheHits         int64 `json:"cacheHits"`
	CacheMisses       int64 `json:"cacheMisses"`
	ActiveConnections int64 `json:"activeConnections"`
}

// Collector records gateway traffic metrics.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	// Atomic counters backing the JSON read models.
	totalRequests     atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	activeConnections atomic.Int64

	// Prometheus metrics.
	requestsTotal    *prometheus.CounterVec
	cacheTotal       *prometheus.CounterVec
	rateLimitedTotal prometheus.Counter
	forwardErrors    *prometheus.CounterVec
	forwardDuration  *prometheus.HistogramVec
	backendHealthy   *prometheus.GaugeVec
	activeSessions   prometheus.Gauge
}

// NewCollector creates a collector registered against the given registry.
// If registry is nil, a new one is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "skyway"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "gateway"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of inbound requests by outcome",
			},
			[]string{"outcome"},
		),

		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_lookups_total",
				Help:      "Total number of cache lookups by result",
			},
			[]string{"result"},
		),

		rateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limited_total",
				Help:      "Total number of requests denied by admission control",
			},
		),

		forwardErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "forward_errors_total",
				Help:      "Total number of forwarding failures by backend",
			},
			[]string{"backend"},
		),

		forwardDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "forward_duration_seconds",
				Help:      "Duration of forwarded backend requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"backend"},
		),

		backendHealthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_healthy",
				Help:      "Backend health status (1=healthy, 0=unhealthy)",
			},
			[]string{"backend"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_sessions",
				Help:      "Number of open WebSocket sessions",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.cacheTotal,
		c.rateLimitedTotal,
		c.forwardErrors,
		c.forwardDuration,
		c.backendHealthy,
		c.activeSessions,
	)

	return c
}

// RecordRequest counts one inbound request. The gateway calls it exactly
// once, before any other handling, so totalRequests increases by one per
// request regardless of outcome.
func (c *Collector) RecordRequest() {
	c.totalRequests.Add(1)
}

// RecordOutcome labels the request's terminal outcome ("forwarded",
// "cache_hit", "rate_limited", "error", "introspection", "websocket").
func (c *Collector) RecordOutcome(outcome string) {
	if c.config.Enabled {
		c.requestsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Add(1)
	if c.config.Enabled {
		c.cacheTotal.WithLabelValues("hit").Inc()
	}
}

// RecordCacheMiss counts a cache miss on a cacheable request.
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Add(1)
	if c.config.Enabled {
		c.cacheTotal.WithLabelValues("miss").Inc()
	}
}

// RecordRateLimited counts a denied admission.
func (c *Collector) RecordRateLimited() {
	if c.config.Enabled {
		c.rateLimitedTotal.Inc()
	}
}

// RecordForward records the latency of a successful forward.
func (c *Collector) RecordForward(backend string, duration time.Duration) {
	if c.config.Enabled {
		c.forwardDuration.WithLabelValues(backend).Observe(duration.Seconds())
	}
}

// RecordForwardError counts a forwarding failure against a backend.
func (c *Collector) RecordForwardError(backend string) {
	if c.config.Enabled {
		c.forwardErrors.WithLabelValues(backend).Inc()
	}
}

// UpdateBackendHealth records a backend's health as a gauge.
func (c *Collector) UpdateBackendHealth(backend string, healthy bool) {
	if c.config.Enabled {
		v := 0.0
		if healthy {
			v = 1.0
		}
		c.backendHealthy.WithLabelValues(backend).Set(v)
	}
}

// SessionOpened increments the active connection count.
func (c *Collector) SessionOpened() {
	c.activeConnections.Add(1)
	if c.config.Enabled {
		c.activeSessions.Inc()
	}
}

// SessionClosed decrements the active connection count.
func (c *Collector) SessionClosed() {
	c.activeConnections.Add(-1)
	if c.config.Enabled {
		c.activeSessions.Dec()
	}
}

// Snapshot returns the current counter values for the JSON read models.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests:     c.totalRequests.Load(),
		CacheHits:         c.cacheHits.Load(),
		CacheMisses:       c.cacheMisses.Load(),
		ActiveConnections: c.activeConnections.Load(),
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
