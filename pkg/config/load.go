package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// newConfig returns a Config with boolean fields that default to true
// pre-set, so that omitting them in YAML keeps the default while an
// explicit `false` still takes effect.
func newConfig() Config {
	return Config{
		HealthCheck: HealthCheckConfig{Enabled: DefaultHealthCheckEnabled},
		RateLimit:   RateLimitConfig{Enabled: DefaultRateLimitEnabled},
		Optimization: OptimizationConfig{
			EnableCompression: true,
			EnableKeepAlive:   true,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := newConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SKYWAY_SECTION_FIELD (e.g., SKYWAY_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format SKYWAY_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("SKYWAY_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SKYWAY_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("SKYWAY_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("SKYWAY_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Health check overrides
	if val := os.Getenv("SKYWAY_HEALTH_CHECK_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.HealthCheck.Enabled = b
		}
	}
	if val := os.Getenv("SKYWAY_HEALTH_CHECK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.HealthCheck.Timeout = d
		}
	}

	// Rate limit overrides
	if val := os.Getenv("SKYWAY_RATE_LIMIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.RateLimit.Enabled = b
		}
	}
	if val := os.Getenv("SKYWAY_RATE_LIMIT_REQUESTS_PER_WINDOW"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.RequestsPerWindow = i
		}
	}
	if val := os.Getenv("SKYWAY_RATE_LIMIT_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.RateLimit.Window = d
		}
	}

	// Cache overrides
	if val := os.Getenv("SKYWAY_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if val := os.Getenv("SKYWAY_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("SKYWAY_CACHE_SQLITE_PATH"); val != "" {
		cfg.Cache.SQLitePath = val
	}

	// Routing overrides
	if val := os.Getenv("SKYWAY_ROUTING_DEFAULT_REGION"); val != "" {
		cfg.Routing.DefaultRegion = val
	}
	if val := os.Getenv("SKYWAY_ROUTING_FORWARD_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Routing.ForwardTimeout = d
		}
	}

	// Maintenance overrides
	if val := os.Getenv("SKYWAY_MAINTENANCE_SCHEDULE"); val != "" {
		cfg.Maintenance.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("SKYWAY_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SKYWAY_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SKYWAY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
