// Package config provides YAML configuration parsing for PollWatch.
//
// This package enables running PollWatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	resource:
//	  name: patients
//	  url: https://${API_HOST}/api/patients
//	  timeout: 5s
//	  headers:
//	    Authorization: Bearer ${API_TOKEN}
//
//	poll:
//	  interval: 3s
//	  max_backoff_interval: 60s
//	  pause_on_inactive: true
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minInterval is the minimum allowed base polling interval for file-based
// configs. This prevents accidental DoS of the polled resource.
const minInterval = 100 * time.Millisecond

const (
	defaultInterval           = 3 * time.Second
	defaultMaxBackoffInterval = 60 * time.Second
	defaultTimeout            = 10 * time.Second
)

// Config is the root configuration structure for PollWatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Resource describes the single remote resource to poll.
	Resource ResourceConfig `yaml:"resource"`

	// Poll holds the scheduling knobs of the engine.
	Poll PollConfig `yaml:"poll"`
}

// ResourceConfig describes the JSON-over-HTTP resource being synchronized.
type ResourceConfig struct {
	// Name is a display name used in logs. Defaults to the URL host.
	Name string `yaml:"name"`

	// URL is the resource URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Method is the HTTP method (GET, HEAD, POST). Defaults to GET.
	Method string `yaml:"method"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// PollConfig holds the engine scheduling knobs.
type PollConfig struct {
	// Interval is the base time between fetches.
	// Accepts duration strings like "3s", "1m", "500ms". Defaults to 3s.
	Interval Duration `yaml:"interval"`

	// MaxBackoffInterval caps the backed-off interval after consecutive
	// failures. Defaults to 60s.
	MaxBackoffInterval Duration `yaml:"max_backoff_interval"`

	// PauseOnInactive stops polling while the process is marked hidden.
	// Defaults to true.
	PauseOnInactive *bool `yaml:"pause_on_inactive"`

	// Enabled controls whether polling runs at all. Defaults to true.
	Enabled *bool `yaml:"enabled"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the URL and header values.
// Defaults are applied for the polling knobs (interval 3s, max backoff
// 60s, pause-on-inactive true, enabled true) and the request timeout
// (10s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = Duration(defaultInterval)
	}
	if cfg.Poll.MaxBackoffInterval == 0 {
		cfg.Poll.MaxBackoffInterval = Duration(defaultMaxBackoffInterval)
	}
	if cfg.Resource.Timeout == 0 {
		cfg.Resource.Timeout = Duration(defaultTimeout)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsEnabled returns the effective enabled flag, defaulting to true.
func (p PollConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// IsPauseOnInactive returns the effective pause flag, defaulting to true.
func (p PollConfig) IsPauseOnInactive() bool {
	return p.PauseOnInactive == nil || *p.PauseOnInactive
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Resource.URL == "" {
		return errors.New("resource.url is required")
	}

	expanded, err := expandEnvVars(c.Resource.URL)
	if err != nil {
		return fmt.Errorf("resource.url: %w", err)
	}
	c.Resource.URL = expanded

	for key, value := range c.Resource.Headers {
		expandedVal, err := expandEnvVars(value)
		if err != nil {
			return fmt.Errorf("resource.headers[%s]: %w", key, err)
		}
		c.Resource.Headers[key] = expandedVal
	}

	parsed, err := url.Parse(c.Resource.URL)
	if err != nil {
		return fmt.Errorf("invalid resource.url: %w", err)
	}
	if parsed.Scheme == "" {
		return errors.New("resource.url must have a scheme (http:// or https://)")
	}

	if c.Resource.Name == "" {
		c.Resource.Name = parsed.Host
	}

	if c.Poll.Interval.Duration() < minInterval {
		return fmt.Errorf("poll.interval must be at least %s, got %s",
			minInterval, c.Poll.Interval.Duration())
	}
	if c.Poll.MaxBackoffInterval.Duration() < c.Poll.Interval.Duration() {
		return fmt.Errorf("poll.max_backoff_interval (%s) must be at least poll.interval (%s)",
			c.Poll.MaxBackoffInterval.Duration(), c.Poll.Interval.Duration())
	}
	if c.Resource.Timeout.Duration() <= 0 {
		return errors.New("resource.timeout must be positive")
	}

	return nil
}
