package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 64 << 20 // 64MB

// ErrBodyTooLarge is returned when a response body exceeds the client's limit.
// The body is never truncated silently.
var ErrBodyTooLarge = errors.New("response body too large")

const (
	defaultMaxIdleConns    = 100
	defaultIdleConnTimeout = 60 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, at most 64MB.
	Body []byte

	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client wrapper for the feed endpoints.
//
// Timeouts are applied per request via the context rather than globally.
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
}

// NewClient creates a new [Client].
//
// maxConnsPerHost caps concurrent connections to one host and also sets how
// many idle connections per host are kept for reuse. Zero means no cap, with
// the transport's default idle pool.
func NewClient(maxConnsPerHost int) *Client {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		MaxIdleConns:      defaultMaxIdleConns,
		MaxConnsPerHost:   maxConnsPerHost,
		IdleConnTimeout:   defaultIdleConnTimeout,
		DisableKeepAlives: false,
	}
	if maxConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = maxConnsPerHost
	}

	return &Client{
		httpClient:  &http.Client{Transport: transport},
		maxBodySize: maxResponseBodySize,
	}
}

// Fetch performs a GET request and returns a structured [Response].
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// one byte past the limit tells a full body from an oversized one
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}
	if int64(len(body)) > c.maxBodySize {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, c.maxBodySize),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
