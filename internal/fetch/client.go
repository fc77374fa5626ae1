package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// A poller hits the same host over and over; the pool is sized for that
// rather than for fan-out across many hosts.
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// defaultTimeout applies when a Request carries no timeout of its own.
const defaultTimeout = 10 * time.Second

// Request describes one poll of the remote resource.
type Request struct {
	// Method is the HTTP method. Empty defaults to GET.
	Method string

	// URL is the target URL.
	URL string

	// Headers are set on the request verbatim.
	Headers map[string]string

	// Timeout bounds the whole request via context cancellation.
	// Zero defaults to 10 seconds.
	Timeout time.Duration
}

// Response holds the result of one poll made by [Client].
//
// Err captures transport-level failures (the request never completed);
// an HTTP error status is reported through StatusCode with Err nil, since
// how to interpret it is the caller's concern.
type Response struct {
	// Body contains the response body, capped at 1MB.
	Body []byte

	// StatusCode is the HTTP status code. Zero if the request failed
	// before a response arrived.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Err contains any transport or read error. nil means the request
	// completed, whatever the status code says.
	Err error
}

// Client is an HTTP client wrapper for repeatedly polling one resource.
//
// Timeouts are applied per request via context rather than as a global
// client timeout, and response bodies are capped at 1MB.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a polling [Client] with connection reuse enabled and
// a pool sized for a single-host polling workload.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Do performs one poll and returns a structured [Response].
//
// Do always returns a Response; failures are captured in the Err field
// rather than returned separately, which keeps the calling source's
// control flow flat.
func (c *Client) Do(ctx context.Context, req Request) Response {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Err:     fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Err:     fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Err:        fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the pool. The client remains
// usable afterwards; new connections are established as needed. Safe to
// call multiple times.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
