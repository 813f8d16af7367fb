package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "skyway",
	Short: "Skyway - edge gateway for regional backend pools",
	Long: `Skyway is an edge gateway that fronts a pool of regional backends.

It terminates client HTTP and WebSocket traffic, providing:
  - Per-client sliding-window rate limiting
  - Region-affine routing with health-based failover
  - Response caching with configurable bypass paths
  - WebSocket session keep-alive management
  - Prometheus and JSON operational introspection`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
