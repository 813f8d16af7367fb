package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Health check defaults
	DefaultHealthCheckEnabled = true
	DefaultHealthCheckPath    = "/health"
	DefaultHealthCheckTimeout = 5 * time.Second

	// Rate limit defaults
	DefaultRateLimitEnabled   = true
	DefaultRequestsPerWindow  = 100
	DefaultRateLimitWindow    = time.Minute

	// Cache defaults
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheBackend    = "memory"
	DefaultCacheSQLitePath = "data/cache.db"
	DefaultCacheMaxEntries = 10000

	// WebSocket defaults
	DefaultKeepAliveInterval = 30 * time.Second
	DefaultMaxMissedPongs    = 3
	DefaultMaxConnections    = 1000

	// Routing defaults
	DefaultRegion         = "us-east"
	DefaultForwardTimeout = 30 * time.Second

	// Maintenance defaults
	DefaultMaintenanceSchedule = "@every 30s"

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "skyway"
	DefaultMetricsSubsystem = "gateway"
)

// DefaultCacheBypassPaths returns the default set of never-cached path
// prefixes. Returned as a function to avoid shared slice mutation.
func DefaultCacheBypassPaths() []string {
	return []string{"/api/auth", "/api/user"}
}

// ApplyDefaults fills in default values for any unset configuration fields.
// It modifies the config in place.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Health check defaults
	if cfg.HealthCheck.Path == "" {
		cfg.HealthCheck.Path = DefaultHealthCheckPath
	}
	if cfg.HealthCheck.Timeout == 0 {
		cfg.HealthCheck.Timeout = DefaultHealthCheckTimeout
	}

	// Rate limit defaults
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = DefaultRateLimitWindow
	}

	// Cache defaults
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.BypassPaths == nil {
		cfg.Cache.BypassPaths = DefaultCacheBypassPaths()
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = DefaultCacheSQLitePath
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}

	// WebSocket defaults
	if cfg.WebSocket.KeepAliveInterval == 0 {
		cfg.WebSocket.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if cfg.WebSocket.MaxMissedPongs == 0 {
		cfg.WebSocket.MaxMissedPongs = DefaultMaxMissedPongs
	}
	if cfg.WebSocket.MaxConnections == 0 {
		cfg.WebSocket.MaxConnections = DefaultMaxConnections
	}

	// Routing defaults
	if cfg.Routing.DefaultRegion == "" {
		cfg.Routing.DefaultRegion = DefaultRegion
	}
	if cfg.Routing.ForwardTimeout == 0 {
		cfg.Routing.ForwardTimeout = DefaultForwardTimeout
	}

	// Maintenance defaults
	if cfg.Maintenance.Schedule == "" {
		cfg.Maintenance.Schedule = DefaultMaintenanceSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}
