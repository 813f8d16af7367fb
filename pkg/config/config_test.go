package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
backends:
  - url: http://backend-1:9000
    priority: 1
    region: us-east
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want default", cfg.Server.ListenAddress)
	}
	if cfg.RateLimit.RequestsPerWindow != DefaultRequestsPerWindow {
		t.Errorf("RequestsPerWindow = %d, want default", cfg.RateLimit.RequestsPerWindow)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("rate limiting should default to enabled")
	}
	if !cfg.HealthCheck.Enabled {
		t.Error("health checking should default to enabled")
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v, want default", cfg.Cache.TTL)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if got := cfg.Cache.BypassPaths; len(got) != 2 || got[0] != "/api/auth" {
		t.Errorf("BypassPaths = %v, want defaults", got)
	}
	if cfg.WebSocket.MaxMissedPongs != DefaultMaxMissedPongs {
		t.Errorf("MaxMissedPongs = %d, want default", cfg.WebSocket.MaxMissedPongs)
	}
	if cfg.Routing.DefaultRegion != DefaultRegion {
		t.Errorf("DefaultRegion = %q, want default", cfg.Routing.DefaultRegion)
	}
	if cfg.Maintenance.Schedule != DefaultMaintenanceSchedule {
		t.Errorf("Schedule = %q, want default", cfg.Maintenance.Schedule)
	}
	if !cfg.Optimization.EnableCompression || !cfg.Optimization.EnableKeepAlive {
		t.Error("optimization toggles should default to enabled")
	}
}

func TestLoadConfigParsesValues(t *testing.T) {
	yaml := `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 10s
backends:
  - url: http://b1:9000
    priority: 1
    region: us-east
  - url: http://b2:9000
    priority: 2
    region: eu-west
rate_limit:
  requests_per_window: 50
  window: 30s
cache:
  ttl: 2m
  backend: sqlite
  sqlite_path: /tmp/cache.db
  bypass_paths:
    - /internal
websocket:
  keepalive_interval: 15s
  max_missed_pongs: 5
telemetry:
  logging:
    level: debug
    format: text
`
	cfg, err := LoadConfig(writeConfigFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if len(cfg.Backends) != 2 || cfg.Backends[1].Region != "eu-west" {
		t.Errorf("Backends = %+v", cfg.Backends)
	}
	if cfg.RateLimit.RequestsPerWindow != 50 || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.SQLitePath != "/tmp/cache.db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if len(cfg.Cache.BypassPaths) != 1 || cfg.Cache.BypassPaths[0] != "/internal" {
		t.Errorf("BypassPaths = %v, want explicit list to replace defaults", cfg.Cache.BypassPaths)
	}
	if cfg.WebSocket.KeepAliveInterval != 15*time.Second || cfg.WebSocket.MaxMissedPongs != 5 {
		t.Errorf("WebSocket = %+v", cfg.WebSocket)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Telemetry.Logging)
	}
}

func TestExplicitFalseSurvivesDefaults(t *testing.T) {
	yaml := minimalYAML + `
rate_limit:
  enabled: false
health_check:
  enabled: false
optimization:
  enable_compression: false
`
	cfg, err := LoadConfig(writeConfigFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.RateLimit.Enabled {
		t.Error("explicit rate_limit.enabled: false was overridden")
	}
	if cfg.HealthCheck.Enabled {
		t.Error("explicit health_check.enabled: false was overridden")
	}
	if cfg.Optimization.EnableCompression {
		t.Error("explicit enable_compression: false was overridden")
	}
	if !cfg.Optimization.EnableKeepAlive {
		t.Error("untouched enable_keepalive flipped from its default")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfigFile(t, "server: [not a map")); err == nil {
		t.Error("malformed YAML should error")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	yaml := `
server:
  listen_address: "not-an-address"
backends:
  - url: "ftp://wrong-scheme:9000"
cache:
  backend: redis
telemetry:
  logging:
    level: loud
`
	_, err := LoadConfig(writeConfigFile(t, yaml))
	if err == nil {
		t.Fatal("invalid config should be rejected")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want ValidationError", err)
	}

	wantFields := []string{
		"server.listen_address",
		"backends[0].url",
		"cache.backend",
		"telemetry.logging.level",
	}
	for _, field := range wantFields {
		found := false
		for _, fe := range verr.Errors {
			if fe.Field == field {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing validation error for %s; got %v", field, verr.Errors)
		}
	}
}

func TestValidateDuplicateBackends(t *testing.T) {
	yaml := `
backends:
  - url: http://b:9000
    region: us-east
  - url: http://b:9000
    region: eu-west
`
	_, err := LoadConfig(writeConfigFile(t, yaml))
	if err == nil || !strings.Contains(err.Error(), "duplicate backend URL") {
		t.Errorf("duplicate backends accepted: %v", err)
	}
}

func TestValidateBadCronSchedule(t *testing.T) {
	yaml := minimalYAML + `
maintenance:
  schedule: "every now and then"
`
	_, err := LoadConfig(writeConfigFile(t, yaml))
	if err == nil || !strings.Contains(err.Error(), "maintenance.schedule") {
		t.Errorf("bad cron schedule accepted: %v", err)
	}
}

func TestValidateSQLiteRequiresPath(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Cache.Backend = "sqlite"
	cfg.Cache.SQLitePath = ""

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "cache.sqlite_path") {
		t.Errorf("sqlite without path accepted: %v", err)
	}
}

func TestValidateZeroBackendsAllowed(t *testing.T) {
	// An empty pool is a valid (if useless) configuration; the gateway
	// answers 503 until backends are added.
	cfg := &Config{}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		t.Errorf("empty backend list rejected: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKYWAY_SERVER_LISTEN_ADDRESS", "0.0.0.0:7777")
	t.Setenv("SKYWAY_RATE_LIMIT_REQUESTS_PER_WINDOW", "7")
	t.Setenv("SKYWAY_CACHE_TTL", "90s")
	t.Setenv("SKYWAY_LOG_LEVEL", "warn")
	t.Setenv("SKYWAY_RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(writeConfigFile(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7777" {
		t.Errorf("ListenAddress = %q, want env override", cfg.Server.ListenAddress)
	}
	if cfg.RateLimit.RequestsPerWindow != 7 {
		t.Errorf("RequestsPerWindow = %d, want 7", cfg.RateLimit.RequestsPerWindow)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Telemetry.Logging.Level)
	}
	if cfg.RateLimit.Enabled {
		t.Error("env override to disable rate limiting ignored")
	}
}

func TestEnvOverridesRevalidate(t *testing.T) {
	t.Setenv("SKYWAY_SERVER_LISTEN_ADDRESS", "definitely not host:port:extra")

	if _, err := LoadConfigWithEnvOverrides(writeConfigFile(t, minimalYAML)); err == nil {
		t.Error("invalid env override should fail validation")
	}
}
