package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateBackends(cfg.Backends)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateWebSocket(&cfg.WebSocket)...)
	errs = append(errs, validateMaintenance(&cfg.Maintenance)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("invalid host:port: %v", err)})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must be positive"})
	}

	return errs
}

func validateBackends(backends []BackendConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(backends))
	for i, b := range backends {
		field := fmt.Sprintf("backends[%d]", i)
		if b.URL == "" {
			errs = append(errs, FieldError{field + ".url", "must not be empty"})
			continue
		}
		u, err := url.Parse(b.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{field + ".url", fmt.Sprintf("invalid URL %q", b.URL)})
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, FieldError{field + ".url", fmt.Sprintf("unsupported scheme %q", u.Scheme)})
		}
		if seen[b.URL] {
			errs = append(errs, FieldError{field + ".url", fmt.Sprintf("duplicate backend URL %q", b.URL)})
		}
		seen[b.URL] = true
		if b.Priority < 0 {
			errs = append(errs, FieldError{field + ".priority", "must not be negative"})
		}
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if cfg.RequestsPerWindow <= 0 {
		errs = append(errs, FieldError{"rate_limit.requests_per_window", "must be positive when rate limiting is enabled"})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{"rate_limit.window", "must be positive when rate limiting is enabled"})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.TTL <= 0 {
		errs = append(errs, FieldError{"cache.ttl", "must be positive"})
	}
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"cache.backend", fmt.Sprintf("unknown backend %q (options: memory, sqlite)", cfg.Backend)})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{"cache.sqlite_path", "must not be empty when backend is sqlite"})
	}
	if cfg.MaxEntries <= 0 {
		errs = append(errs, FieldError{"cache.max_entries", "must be positive"})
	}
	for i, p := range cfg.BypassPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, FieldError{fmt.Sprintf("cache.bypass_paths[%d]", i), fmt.Sprintf("path prefix %q must start with /", p)})
		}
	}

	return errs
}

func validateWebSocket(cfg *WebSocketConfig) []FieldError {
	var errs []FieldError

	if cfg.KeepAliveInterval <= 0 {
		errs = append(errs, FieldError{"websocket.keepalive_interval", "must be positive"})
	}
	if cfg.MaxMissedPongs <= 0 {
		errs = append(errs, FieldError{"websocket.max_missed_pongs", "must be positive"})
	}
	if cfg.MaxConnections <= 0 {
		errs = append(errs, FieldError{"websocket.max_connections", "must be positive"})
	}

	return errs
}

func validateMaintenance(cfg *MaintenanceConfig) []FieldError {
	var errs []FieldError

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{"maintenance.schedule", fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err)})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}

	return errs
}
