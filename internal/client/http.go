package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient makes REST calls to the feed backend.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
}

// NewHTTPClient creates a client targeting base (e.g. "http://127.0.0.1:3001").
// Every request is bounded by timeout.
func NewHTTPClient(base *url.URL, timeout time.Duration) *HTTPClient {
	u := *base
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	return &HTTPClient{
		baseURL: &u,
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the HTTP base the client resolves paths against.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL.String()
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	target := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &TransportError{Op: "GET", URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Op: "GET", URL: target, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{Op: "GET", URL: target, Err: fmt.Errorf("%d %s", resp.StatusCode, string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: "GET", URL: target, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// TransportError reports an unreachable backend or a response that could
// not be understood. It is never fatal; callers may retry.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
