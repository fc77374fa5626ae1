package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Do(context.Background(), Request{URL: server.URL})
	if resp.Err != nil {
		t.Fatalf("Do() Err = %v", resp.Err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != `{"status": "ok"}` {
		t.Errorf("Body = %q, want %q", resp.Body, `{"status": "ok"}`)
	}
	if resp.Latency <= 0 {
		t.Error("Latency should be positive")
	}
}

func TestClient_DoDefaultsToGet(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	client.Do(context.Background(), Request{URL: server.URL})
	if gotMethod != http.MethodGet {
		t.Errorf("method = %q, want GET", gotMethod)
	}
}

func TestClient_DoSetsHeaders(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	client.Do(context.Background(), Request{
		URL:     server.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	})
	if gotHeader != "secret" {
		t.Errorf("X-Api-Key = %q, want %q", gotHeader, "secret")
	}
}

func TestClient_DoErrorStatusIsNotErr(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Do(context.Background(), Request{URL: server.URL})
	if resp.Err != nil {
		t.Errorf("Do() Err = %v for a completed request, want nil", resp.Err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestClient_DoTransportError(t *testing.T) {
	client := NewClient()
	defer client.Close()

	// nothing listens here
	resp := client.Do(context.Background(), Request{URL: "http://127.0.0.1:1"})
	if resp.Err == nil {
		t.Error("Do() Err = nil for unreachable host, want error")
	}
	if resp.StatusCode != 0 {
		t.Errorf("StatusCode = %d for failed request, want 0", resp.StatusCode)
	}
}

func TestClient_DoInvalidURL(t *testing.T) {
	client := NewClient()
	defer client.Close()

	resp := client.Do(context.Background(), Request{URL: "://bad", Method: "GET"})
	if resp.Err == nil {
		t.Error("Do() Err = nil for invalid URL, want error")
	}
}

func TestClient_DoTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Do(context.Background(), Request{
		URL:     server.URL,
		Timeout: 20 * time.Millisecond,
	})
	if resp.Err == nil {
		t.Error("Do() Err = nil for slow server, want timeout error")
	}
}

func TestClient_DoCapsBody(t *testing.T) {
	big := make([]byte, maxResponseBodySize+1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(big)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Do(context.Background(), Request{URL: server.URL})
	if resp.Err != nil {
		t.Fatalf("Do() Err = %v", resp.Err)
	}
	if len(resp.Body) != maxResponseBodySize {
		t.Errorf("len(Body) = %d, want capped at %d", len(resp.Body), maxResponseBodySize)
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	client := NewClient()
	client.Close()
	client.Close()

	var nilClient *Client
	nilClient.Close() // must not panic
}
