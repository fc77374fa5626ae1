package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Full(t *testing.T) {
	data := []byte(`
resource:
  name: patients
  url: https://api.example.com/patients
  method: GET
  timeout: 5s
  headers:
    Authorization: Bearer secret

poll:
  interval: 2s
  max_backoff_interval: 30s
  pause_on_inactive: false
  enabled: true
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Resource.Name != "patients" {
		t.Errorf("Resource.Name = %q, want %q", cfg.Resource.Name, "patients")
	}
	if cfg.Resource.URL != "https://api.example.com/patients" {
		t.Errorf("Resource.URL = %q", cfg.Resource.URL)
	}
	if cfg.Resource.Timeout.Duration() != 5*time.Second {
		t.Errorf("Resource.Timeout = %v, want 5s", cfg.Resource.Timeout.Duration())
	}
	if cfg.Resource.Headers["Authorization"] != "Bearer secret" {
		t.Errorf("Authorization header = %q", cfg.Resource.Headers["Authorization"])
	}
	if cfg.Poll.Interval.Duration() != 2*time.Second {
		t.Errorf("Poll.Interval = %v, want 2s", cfg.Poll.Interval.Duration())
	}
	if cfg.Poll.MaxBackoffInterval.Duration() != 30*time.Second {
		t.Errorf("Poll.MaxBackoffInterval = %v, want 30s", cfg.Poll.MaxBackoffInterval.Duration())
	}
	if cfg.Poll.IsPauseOnInactive() {
		t.Error("IsPauseOnInactive() = true, want false")
	}
	if !cfg.Poll.IsEnabled() {
		t.Error("IsEnabled() = false, want true")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
resource:
  url: https://api.example.com/records
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Poll.Interval.Duration() != 3*time.Second {
		t.Errorf("default interval = %v, want 3s", cfg.Poll.Interval.Duration())
	}
	if cfg.Poll.MaxBackoffInterval.Duration() != 60*time.Second {
		t.Errorf("default max backoff = %v, want 60s", cfg.Poll.MaxBackoffInterval.Duration())
	}
	if cfg.Resource.Timeout.Duration() != 10*time.Second {
		t.Errorf("default timeout = %v, want 10s", cfg.Resource.Timeout.Duration())
	}
	if !cfg.Poll.IsEnabled() {
		t.Error("IsEnabled() = false by default, want true")
	}
	if !cfg.Poll.IsPauseOnInactive() {
		t.Error("IsPauseOnInactive() = false by default, want true")
	}
	// name falls back to the URL host
	if cfg.Resource.Name != "api.example.com" {
		t.Errorf("default name = %q, want URL host", cfg.Resource.Name)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing url",
			yaml:    "resource:\n  name: foo\n",
			wantErr: "resource.url is required",
		},
		{
			name:    "url without scheme",
			yaml:    "resource:\n  url: api.example.com/records\n",
			wantErr: "scheme",
		},
		{
			name:    "invalid duration",
			yaml:    "resource:\n  url: https://x.test\npoll:\n  interval: banana\n",
			wantErr: "invalid duration",
		},
		{
			name:    "interval below minimum",
			yaml:    "resource:\n  url: https://x.test\npoll:\n  interval: 10ms\n",
			wantErr: "at least",
		},
		{
			name:    "max backoff below interval",
			yaml:    "resource:\n  url: https://x.test\npoll:\n  interval: 5s\n  max_backoff_interval: 1s\n",
			wantErr: "max_backoff_interval",
		},
		{
			name:    "not yaml",
			yaml:    "{{{",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("POLL_HOST", "api.example.com")
	t.Setenv("POLL_TOKEN", "tok-123")

	cfg, err := Parse([]byte(`
resource:
  url: https://${POLL_HOST}/records
  headers:
    Authorization: Bearer ${POLL_TOKEN}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Resource.URL != "https://api.example.com/records" {
		t.Errorf("URL = %q, want expanded host", cfg.Resource.URL)
	}
	if cfg.Resource.Headers["Authorization"] != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want expanded token", cfg.Resource.Headers["Authorization"])
	}
}

func TestParse_EnvDefault(t *testing.T) {
	os.Unsetenv("POLL_MISSING_HOST")

	cfg, err := Parse([]byte(`
resource:
  url: https://${POLL_MISSING_HOST:-localhost:8080}/records
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Resource.URL != "https://localhost:8080/records" {
		t.Errorf("URL = %q, want default substituted", cfg.Resource.URL)
	}
}

func TestParse_EnvMissingNoDefault(t *testing.T) {
	os.Unsetenv("POLL_MISSING_TOKEN")

	_, err := Parse([]byte(`
resource:
  url: https://x.test
  headers:
    Authorization: Bearer ${POLL_MISSING_TOKEN}
`))
	if err == nil {
		t.Fatal("Parse() expected error for unset variable without default, got nil")
	}
	if !strings.Contains(err.Error(), "POLL_MISSING_TOKEN") {
		t.Errorf("Parse() error = %q, want variable name in message", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("resource:\n  url: https://x.test/records\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Resource.URL != "https://x.test/records" {
		t.Errorf("URL = %q", cfg.Resource.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}
