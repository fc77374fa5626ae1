package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/pollwatch/pollwatch"
	"github.com/pollwatch/pollwatch/config"
)

// watchConfigFile reloads the config file on change and reconfigures the
// running engine. The parent directory is watched rather than the file
// itself, because editors typically replace the file (rename + create)
// rather than writing in place.
//
// Only the polling knobs can change at runtime; a changed resource URL is
// logged as requiring a restart.
func watchConfigFile(ctx context.Context, path string, logger *slog.Logger, engine *pollwatch.Engine[json.RawMessage], originalURL string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	logger.Info("watching config file for changes", "path", absPath)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				applyConfigChange(absPath, logger, engine, originalURL)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return nil
}

// applyConfigChange reloads the config file and pushes the polling knobs
// into the engine. Parse errors leave the running configuration intact.
func applyConfigChange(path string, logger *slog.Logger, engine *pollwatch.Engine[json.RawMessage], originalURL string) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("ignoring config change", "error", err)
		return
	}

	if cfg.Resource.URL != originalURL {
		logger.Warn("resource.url changed; restart required to apply it",
			"old", originalURL,
			"new", cfg.Resource.URL,
		)
	}

	settings := config.BuildSettings(cfg)
	if err := engine.Reconfigure(settings); err != nil {
		logger.Warn("failed to apply config change", "error", err)
		return
	}

	logger.Info("config reloaded",
		"enabled", settings.Enabled,
		"interval", settings.Interval.String(),
		"max_backoff_interval", settings.MaxBackoffInterval.String(),
		"pause_on_inactive", settings.PauseOnInactive,
	)
}
