package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"skyline-hq/skyway/pkg/config"
)

var validateFlags struct {
	env bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the gateway.

The validate command parses the YAML file, applies defaults, and runs the
same validation the run command performs at startup. A non-zero exit means
the configuration would be rejected.

Examples:
  # Validate the default config file
  skyway validate

  # Validate a specific file
  skyway validate --config /etc/skyway/config.yaml

  # Include environment variable overrides in the check
  skyway validate --env`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.env, "env", false, "apply SKYWAY_* environment overrides before validating")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	load := config.LoadConfig
	if validateFlags.env {
		load = config.LoadConfigWithEnvOverrides
	}

	cfg, err := load(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ Configuration invalid (%d errors):\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("configuration validation failed")
		}
		return err
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Backends: %d\n", len(cfg.Backends))
	fmt.Printf("  Cache backend: %s\n", cfg.Cache.Backend)
	if verbose {
		for _, b := range cfg.Backends {
			fmt.Printf("  - %s (region=%s, priority=%d)\n", b.URL, b.Region, b.Priority)
		}
	}
	return nil
}
