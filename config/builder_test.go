package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/pollwatch/pollwatch"
)

func TestBuildSettings(t *testing.T) {
	cfg, err := Parse([]byte(`
resource:
  url: https://x.test/records
poll:
  interval: 2s
  max_backoff_interval: 45s
  pause_on_inactive: false
  enabled: false
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := BuildSettings(cfg)
	want := pollwatch.Config{
		Enabled:            false,
		Interval:           2 * time.Second,
		PauseOnInactive:    false,
		MaxBackoffInterval: 45 * time.Second,
	}
	if got != want {
		t.Errorf("BuildSettings() = %+v, want %+v", got, want)
	}
}

func TestBuildSourceOptions(t *testing.T) {
	cfg, err := Parse([]byte(`
resource:
  url: https://x.test/records
  method: HEAD
  timeout: 5s
  headers:
    X-Api-Key: secret
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts := BuildSourceOptions(cfg)
	if len(opts) != 3 {
		t.Fatalf("BuildSourceOptions() returned %d options, want 3", len(opts))
	}

	// the options must all apply cleanly to a source
	if _, err := pollwatch.NewHTTPSource[map[string]any](cfg.Resource.URL, opts...); err != nil {
		t.Errorf("NewHTTPSource() with built options: error = %v", err)
	}
}

func TestBuildSourceOptions_Minimal(t *testing.T) {
	cfg, err := Parse([]byte("resource:\n  url: https://x.test/records\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// the default timeout is still materialized as an option
	opts := BuildSourceOptions(cfg)
	if len(opts) != 1 {
		t.Errorf("BuildSourceOptions() returned %d options, want 1 (timeout)", len(opts))
	}
}

func TestMapToKeyValuePairs(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{
		"B": "2",
		"A": "1",
		"C": "3",
	})
	want := []string{"A", "1", "B", "2", "C", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mapToKeyValuePairs() = %v, want %v", got, want)
	}
}
