// Package main is the entry point for the pollwatch CLI.
//
// PollWatch can be run either as a library (SDK) or as a standalone
// binary with YAML configuration. This CLI provides the standalone
// binary approach.
//
// Usage:
//
//	pollwatch watch -c config.yaml    # Poll the configured resource
//	pollwatch validate -c config.yaml # Validate configuration
//	pollwatch version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "pollwatch",
	Short: "Adaptive polling for a remote JSON resource",
	Long: `PollWatch keeps a view of a remote JSON resource fresh by adaptive polling.

It fetches the configured resource at a base interval, backs off
exponentially while the resource is failing, and can pause entirely while
the process is marked inactive (SIGUSR1 hides, SIGUSR2 shows).

Quick start:
  1. Create a config file (pollwatch.yaml)
  2. Run: pollwatch watch -c pollwatch.yaml

Example config:
  resource:
    name: patients
    url: https://api.example.com/api/patients
    headers:
      Authorization: Bearer ${API_TOKEN}
  poll:
    interval: 3s
    max_backoff_interval: 60s`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pollwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pollwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
