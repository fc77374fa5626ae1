package config

import (
	"sort"

	"github.com/pollwatch/pollwatch"
)

// BuildSettings converts the parsed polling knobs into an SDK
// [pollwatch.Config].
func BuildSettings(cfg *Config) pollwatch.Config {
	return pollwatch.Config{
		Enabled:            cfg.Poll.IsEnabled(),
		Interval:           cfg.Poll.Interval.Duration(),
		PauseOnInactive:    cfg.Poll.IsPauseOnInactive(),
		MaxBackoffInterval: cfg.Poll.MaxBackoffInterval.Duration(),
	}
}

// BuildSourceOptions converts the parsed resource description into SDK
// source options for [pollwatch.NewHTTPSource].
func BuildSourceOptions(cfg *Config) []pollwatch.SourceOption {
	var opts []pollwatch.SourceOption

	if cfg.Resource.Method != "" {
		opts = append(opts, pollwatch.WithRequestMethod(cfg.Resource.Method))
	}
	if cfg.Resource.Timeout != 0 {
		opts = append(opts, pollwatch.WithRequestTimeout(cfg.Resource.Timeout.Duration()))
	}
	if len(cfg.Resource.Headers) > 0 {
		opts = append(opts, pollwatch.WithRequestHeaders(mapToKeyValuePairs(cfg.Resource.Headers)...))
	}

	return opts
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
