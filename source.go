package pollwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pollwatch/pollwatch/internal/fetch"
)

const defaultRequestTimeout = 10 * time.Second

// sourceConfig holds mutable state during HTTPSource construction.
type sourceConfig struct {
	method  string
	headers map[string]string
	timeout time.Duration
}

// SourceOption is a function that configures an [HTTPSource] during
// construction via [NewHTTPSource].
//
// Built-in options: [WithRequestMethod], [WithRequestHeaders],
// [WithRequestTimeout].
type SourceOption func(*sourceConfig) error

// WithRequestMethod sets the HTTP method for poll requests.
//
// Supported methods are GET (default), HEAD, and POST.
// Returns an error for any other method.
func WithRequestMethod(method string) SourceOption {
	return func(cfg *sourceConfig) error {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET, HEAD, or POST")
		}
	}
}

// WithRequestHeaders adds custom HTTP headers to every poll request.
//
// Use this for resources that require authentication or custom headers.
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	src, err := pollwatch.NewHTTPSource[[]Record](url,
//	    pollwatch.WithRequestHeaders("Authorization", "Bearer token123"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithRequestHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithRequestHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout.
//
// If the resource does not respond within this duration the fetch fails
// and is counted against the backoff. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// HTTPSource fetches a JSON resource over HTTP and decodes it into T.
//
// It is the canonical [FetchFunc] provider for an [Engine]: pass
// [HTTPSource.Fetch] to [New]. All failure modes a poller meets at this
// boundary (transport errors, error status codes, undecodable bodies) are
// normalized into single errors whose messages surface in [State.Err].
//
// An HTTPSource holds a pooled HTTP client; call [HTTPSource.Close] when
// the source is no longer needed.
type HTTPSource[T any] struct {
	url     string
	method  string
	headers map[string]string
	timeout time.Duration
	client  *fetch.Client
}

// NewHTTPSource creates an [HTTPSource] polling the given URL.
//
// The URL must carry a scheme (http:// or https://). Options are applied
// in order; see [WithRequestMethod], [WithRequestHeaders], and
// [WithRequestTimeout].
//
// Example:
//
//	src, err := pollwatch.NewHTTPSource[[]Record]("https://api.example.com/records",
//	    pollwatch.WithRequestTimeout(5 * time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	engine, err := pollwatch.New(src.Fetch)
func NewHTTPSource[T any](rawURL string, opts ...SourceOption) (*HTTPSource[T], error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, errors.New("URL must have a scheme (http:// or https://)")
	}

	cfg := &sourceConfig{
		headers: make(map[string]string),
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &HTTPSource[T]{
		url:     rawURL,
		method:  cfg.method,
		headers: cfg.headers,
		timeout: cfg.timeout,
		client:  fetch.NewClient(),
	}, nil
}

// URL returns the polled URL.
func (s *HTTPSource[T]) URL() string {
	return s.url
}

// Fetch performs one poll of the resource. It satisfies [FetchFunc].
//
// A response with status >= 400 is a fetch failure; the body is not
// decoded in that case.
func (s *HTTPSource[T]) Fetch(ctx context.Context) (T, error) {
	var zero T

	resp := s.client.Do(ctx, fetch.Request{
		Method:  s.method,
		URL:     s.url,
		Headers: s.headers,
		Timeout: s.timeout,
	})
	if resp.Err != nil {
		return zero, resp.Err
	}
	if resp.StatusCode >= 400 {
		return zero, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)
	}

	// HEAD has no body to decode; reachability is the whole check
	if s.method == http.MethodHead {
		return zero, nil
	}

	var out T
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// Close releases the source's idle connections.
func (s *HTTPSource[T]) Close() {
	s.client.Close()
}
