package config

import "time"

// Config is the root configuration structure for Skyway.
// It contains all configuration sections for the edge server, backend pool,
// routing, caching, rate limiting, WebSocket sessions, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and connection limits.
	Server ServerConfig `yaml:"server"`

	// Backends is the ordered list of upstream backends the gateway fronts.
	// Order matters: it breaks priority ties and selects the degraded-mode
	// fallback when no backend is healthy.
	Backends []BackendConfig `yaml:"backends"`

	// HealthCheck contains configuration for periodic backend probing.
	HealthCheck HealthCheckConfig `yaml:"health_check"`

	// RateLimit contains per-client admission control configuration.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Cache contains response cache configuration.
	Cache CacheConfig `yaml:"cache"`

	// WebSocket contains session keep-alive configuration.
	WebSocket WebSocketConfig `yaml:"websocket"`

	// Optimization contains outbound request rewrite toggles.
	Optimization OptimizationConfig `yaml:"optimization"`

	// Routing contains region affinity configuration.
	Routing RoutingConfig `yaml:"routing"`

	// Maintenance contains the periodic maintenance schedule.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It is not applied to WebSocket sessions.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// BackendConfig describes a single upstream backend.
type BackendConfig struct {
	// URL is the base URL of the backend (e.g., "http://10.0.1.5:9000").
	// It is also the backend's identity.
	URL string `yaml:"url"`

	// Priority orders backends for selection; lower values are preferred.
	// Default: 0
	Priority int `yaml:"priority"`

	// Region is the geographic region tag used for affinity routing
	// (e.g., "us-east", "eu-west", "ap-south").
	Region string `yaml:"region"`
}

// HealthCheckConfig contains configuration for periodic backend probing.
type HealthCheckConfig struct {
	// Enabled controls whether periodic probing runs.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the probe path appended to each backend URL.
	// Default: "/health"
	Path string `yaml:"path"`

	// Timeout bounds each individual probe request. Exceeding it counts
	// as an unhealthy result.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig contains per-client admission control configuration.
type RateLimitConfig struct {
	// Enabled controls whether admission control is applied. When false,
	// all requests are admitted without bookkeeping.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerWindow is the maximum number of requests a single client
	// may make within one window.
	// Default: 100
	RequestsPerWindow int `yaml:"requests_per_window"`

	// Window is the sliding window duration.
	// Default: 1m
	Window time.Duration `yaml:"window"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// TTL is the advisory freshness lifetime attached to cached responses
	// as a Cache-Control max-age directive.
	// Default: 5m
	TTL time.Duration `yaml:"ttl"`

	// BypassPaths lists path prefixes that are never cached.
	// Default: ["/api/auth", "/api/user"]
	BypassPaths []string `yaml:"bypass_paths"`

	// Backend selects the cache store implementation.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/cache.db"
	SQLitePath string `yaml:"sqlite_path"`

	// MaxEntries bounds the number of entries held by the memory backend.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`
}

// WebSocketConfig contains session keep-alive configuration.
type WebSocketConfig struct {
	// KeepAliveInterval is how often a ping envelope is sent on each
	// open session.
	// Default: 30s
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`

	// MaxMissedPongs is the number of consecutive keep-alive intervals
	// without a pong after which the session is closed.
	// Default: 3
	MaxMissedPongs int `yaml:"max_missed_pongs"`

	// MaxConnections caps concurrent sessions; upgrades beyond the cap
	// are rejected.
	// Default: 1000
	MaxConnections int `yaml:"max_connections"`
}

// OptimizationConfig contains outbound request rewrite toggles.
// Credential-bearing headers are always stripped regardless of these flags.
type OptimizationConfig struct {
	// EnableCompression sets an Accept-Encoding hint on forwarded requests.
	// Default: true
	EnableCompression bool `yaml:"enable_compression"`

	// EnableKeepAlive sets a Connection: keep-alive hint on forwarded
	// requests.
	// Default: true
	EnableKeepAlive bool `yaml:"enable_keepalive"`
}

// RoutingConfig contains region affinity configuration.
type RoutingConfig struct {
	// DefaultRegion is the region assigned to requests whose origin
	// country is not in the lookup table.
	// Default: "us-east"
	DefaultRegion string `yaml:"default_region"`

	// ForwardTimeout bounds each forwarded backend request.
	// Default: 30s
	ForwardTimeout time.Duration `yaml:"forward_timeout"`
}

// MaintenanceConfig contains the periodic maintenance schedule.
type MaintenanceConfig struct {
	// Schedule is a cron expression (robfig/cron syntax, @every supported)
	// driving backend probing and rate-limit table cleanup.
	// Default: "@every 30s"
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether Prometheus metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "skyway"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`
}
