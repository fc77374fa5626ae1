package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/pollwatch/pollwatch"
	"github.com/pollwatch/pollwatch/config"
)

// newLogger creates a logger for CLI use. "json" is the machine-readable
// default; "text" uses a tinted console handler.
func newLogger(format string, level slog.Level) (*slog.Logger, error) {
	switch format {
	case "", "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})), nil
	case "text":
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (expected 'json' or 'text')", format)
	}
}

// watchCmd runs the polling engine against the configured resource.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the configured resource",
	Long: `Poll the configured resource and log every state transition.

The process will:
  - Load configuration from the specified YAML file (and .env, if present)
  - Fetch the resource immediately, then at the configured interval
  - Back off exponentially while fetches fail, capped at the configured maximum
  - Pause polling on SIGUSR1 and resume (with an immediate fetch) on SIGUSR2,
    when pause_on_inactive is enabled

With --watch-config, changes to the config file are applied to the running
engine without a restart (a changed resource URL still requires one).

The process runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  pollwatch watch -c config.yaml
  pollwatch watch -c config.yaml --log-format text --watch-config`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	watchCmd.Flags().String("log-format", "json", "log output format: json or text")
	watchCmd.Flags().Bool("watch-config", false, "reload the config file on change")
	watchCmd.Flags().Bool("verbose", false, "log successful fetches too")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// pick up API tokens etc. from .env before config expansion
	_ = godotenv.Load()

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	format, _ := cmd.Flags().GetString("log-format")
	logger, err := newLogger(format, level)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"resource", cfg.Resource.Name,
		"url", cfg.Resource.URL,
		"interval", cfg.Poll.Interval.Duration().String(),
		"max_backoff_interval", cfg.Poll.MaxBackoffInterval.Duration().String(),
	)

	src, err := pollwatch.NewHTTPSource[json.RawMessage](cfg.Resource.URL, config.BuildSourceOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	defer src.Close()

	// hidden/visible is driven by POSIX signals for a headless process
	vis := pollwatch.NewVisibilitySignal(true)

	engine, err := pollwatch.New(src.Fetch,
		pollwatch.WithConfig[json.RawMessage](config.BuildSettings(cfg)),
		pollwatch.WithVisibility[json.RawMessage](vis),
		pollwatch.WithLogger[json.RawMessage](logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	visCh := make(chan os.Signal, 1)
	signal.Notify(visCh, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(visCh)
	go func() {
		for sig := range visCh {
			switch sig {
			case syscall.SIGUSR1:
				logger.Info("received SIGUSR1, marking hidden")
				vis.Set(false)
			case syscall.SIGUSR2:
				logger.Info("received SIGUSR2, marking visible")
				vis.Set(true)
			}
		}
	}()

	updates := engine.Updates()
	engine.Start(ctx)

	watchConfig, _ := cmd.Flags().GetBool("watch-config")
	if watchConfig {
		if err := watchConfigFile(ctx, configFile, logger, engine, cfg.Resource.URL); err != nil {
			engine.Stop()
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			engine.Stop()
			logger.Info("pollwatch stopped")
			return nil
		case state, ok := <-updates:
			if !ok {
				return nil
			}
			logState(logger, cfg.Resource.Name, state)
		}
	}
}

// logState logs one state snapshot at a level reflecting its content
// (DEBUG for in-flight and successful snapshots to reduce noise).
func logState(logger *slog.Logger, resource string, state pollwatch.State[json.RawMessage]) {
	attrs := []any{
		"resource", resource,
		"consecutive_errors", state.ConsecutiveErrors,
		"current_interval", state.CurrentInterval.String(),
	}

	switch {
	case state.Loading || state.IsRefreshing:
		logger.Debug("fetch in flight", attrs...)
	case state.Err != "":
		logger.Warn("resource fetch failed", append(attrs, "error", state.Err)...)
	case state.HasData:
		logger.Info("resource updated", append(attrs, "bytes", len(state.Data))...)
	}
}
