package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"skyline-hq/skyway/pkg/cache"
	"skyline-hq/skyway/pkg/cache/storage"
	"skyline-hq/skyway/pkg/config"
	"skyline-hq/skyway/pkg/gateway"
	"skyline-hq/skyway/pkg/health"
	"skyline-hq/skyway/pkg/limits/ratelimit"
	"skyline-hq/skyway/pkg/maintenance"
	"skyline-hq/skyway/pkg/optimize"
	"skyline-hq/skyway/pkg/registry"
	"skyline-hq/skyway/pkg/routing"
	"skyline-hq/skyway/pkg/server"
	"skyline-hq/skyway/pkg/sessions"
	"skyline-hq/skyway/pkg/telemetry/logging"
	"skyline-hq/skyway/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Skyway gateway",
	Long: `Start the Skyway gateway with the specified configuration.

The gateway listens on the configured address and serves client traffic
through the rate limiter, cache, and router, forwarding to the healthiest
region-matching backend.

Examples:
  # Start with default config
  skyway run

  # Start with custom config
  skyway run --config /etc/skyway/config.yaml

  # Override listen address
  skyway run --listen 0.0.0.0:8080

  # Log a warning when the config file changes on disk
  skyway run --watch-config`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", true, "watch the config file and log when it changes")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	}); err != nil {
		return err
	}

	fmt.Printf("Skyway v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend pool: backends start unhealthy and are promoted by the first
	// probe pass, except when probing is disabled, in which case every
	// backend is trusted immediately.
	reg := registry.New(cfg.Backends, !cfg.HealthCheck.Enabled)
	fmt.Printf("✓ Backend pool initialized (%d backends)\n", reg.Len())

	checker := health.New(reg, cfg.HealthCheck)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
	})

	collector := metrics.NewCollector(metrics.Config{
		Enabled:   cfg.Telemetry.Metrics.Enabled,
		Namespace: cfg.Telemetry.Metrics.Namespace,
		Subsystem: cfg.Telemetry.Metrics.Subsystem,
	}, nil)

	// Cache backend selection mirrors the config: memory is the default,
	// sqlite survives restarts.
	var backend storage.Backend
	switch cfg.Cache.Backend {
	case "sqlite":
		backend, err = storage.NewSQLiteBackend(cfg.Cache.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite cache: %w", err)
		}
	default:
		backend = storage.NewMemoryBackend(cfg.Cache.MaxEntries)
	}

	responseCache := cache.New(backend, collector, cache.Config{
		TTL:         cfg.Cache.TTL,
		BypassPaths: cfg.Cache.BypassPaths,
	})
	fmt.Printf("✓ Response cache initialized (backend=%s)\n", cfg.Cache.Backend)

	router := routing.New(reg, cfg.Routing.DefaultRegion)
	optimizer := optimize.New(optimize.Config{
		EnableCompression: cfg.Optimization.EnableCompression,
		EnableKeepAlive:   cfg.Optimization.EnableKeepAlive,
	})

	sessionManager := sessions.NewManager(sessions.Config{
		KeepAliveInterval: cfg.WebSocket.KeepAliveInterval,
		MaxMissedPongs:    cfg.WebSocket.MaxMissedPongs,
		MaxConnections:    cfg.WebSocket.MaxConnections,
	}, collector)

	forwarder := gateway.NewHTTPForwarder(cfg.Routing.ForwardTimeout)
	gw := gateway.New(reg, limiter, responseCache, router, optimizer, sessionManager, collector, forwarder)

	// Periodic maintenance: backend probes and rate-limit window cleanup.
	scheduler := maintenance.NewScheduler(checker, limiter, cfg.Maintenance.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	defer scheduler.Stop()

	if runFlags.watchConfig {
		watcher, err := config.NewWatcher(cfgFile)
		if err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else {
			go func() {
				watcher.Watch(ctx, func() {
					slog.Warn("configuration file changed on disk, restart to apply", "path", cfgFile)
				})
			}()
		}
	}

	srv := server.New(cfg.Server, gw)
	srv.OnShutdown(func() {
		sessionManager.CloseAll()
		if err := backend.Close(); err != nil {
			slog.Error("failed to close cache backend", "error", err)
		}
	})

	fmt.Println()
	fmt.Printf("✓ Gateway listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a shutdown signal, context cancellation, or a
	// listener error.
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("gateway error: %w", err)
	}

	fmt.Println("✓ Gateway stopped")
	return nil
}
