package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pollwatch/pollwatch/config"
)

// validateCmd validates a config file without polling anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a PollWatch configuration file without polling anything.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pollwatch validate -c config.yaml
  pollwatch validate --config /etc/pollwatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	method := cfg.Resource.Method
	if method == "" {
		method = "GET"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Resource:             %s (%s %s)\n", cfg.Resource.Name, method, cfg.Resource.URL)
	fmt.Printf("  Request timeout:      %s\n", cfg.Resource.Timeout.Duration())
	fmt.Printf("  Poll interval:        %s\n", cfg.Poll.Interval.Duration())
	fmt.Printf("  Max backoff interval: %s\n", cfg.Poll.MaxBackoffInterval.Duration())
	fmt.Printf("  Pause on inactive:    %t\n", cfg.Poll.IsPauseOnInactive())
	fmt.Printf("  Enabled:              %t\n", cfg.Poll.IsEnabled())

	return nil
}
