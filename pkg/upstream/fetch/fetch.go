package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
	"github.com/akaere/whoisd/pkg/metrics"
)

// BrowserUserAgent is presented to endpoints known to reject generic Go
// agents (IANA file downloads, storefront search pages).
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single request unless an endpoint family
// overrides it.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps upstream bodies; package-registry responses can be
// large but never legitimately this large.
const maxBodyBytes = 16 << 20

// Option mutates an outgoing request before it is sent.
type Option func(*http.Request)

// WithBrowserUA sets the realistic browser user agent.
func WithBrowserUA() Option {
	return func(req *http.Request) {
		req.Header.Set("User-Agent", BrowserUserAgent)
	}
}

// WithBearer sets an Authorization: Bearer header.
func WithBearer(token string) Option {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithAPIKey sets an x-api-key header.
func WithAPIKey(key string) Option {
	return func(req *http.Request) {
		req.Header.Set("x-api-key", key)
	}
}

// WithHeader sets an arbitrary header.
func WithHeader(name, value string) Option {
	return func(req *http.Request) {
		req.Header.Set(name, value)
	}
}

// Client is a single-shot GET client shared by all HTTP/JSON handlers.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the given per-request timeout.
// Zero means DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// StatusError carries the non-2xx status of an upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Unwrap makes StatusError match errkind.ErrUpstreamUnavailable.
func (e *StatusError) Unwrap() error {
	return errkind.ErrUpstreamUnavailable
}

// GetBytes performs one GET and returns the body of a 2xx response.
func (c *Client) GetBytes(ctx context.Context, url string, opts ...Option) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for _, opt := range opts {
		opt(req)
	}

	host := req.URL.Host
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(host, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%s: %w", url, errkind.ErrTimeout)
		}
		return nil, fmt.Errorf("%s: %v: %w", url, err, errkind.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(host, "error").Inc()
		log.WithComponent("fetch").Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("non-2xx upstream response")
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(host, "ok").Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v: %w", url, err, errkind.ErrUpstreamUnavailable)
	}
	return body, nil
}

// GetJSON performs one GET and decodes the 2xx body into v. Unknown fields
// in the response are deliberately ignored: projection structs only declare
// what the output rendering needs.
func (c *Client) GetJSON(ctx context.Context, url string, v any, opts ...Option) error {
	body, err := c.GetBytes(ctx, url, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %v: %w", url, err, errkind.ErrUpstreamMalformed)
	}
	return nil
}

// PostJSON sends payload as a JSON body and decodes the 2xx response into v.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, v any, opts ...Option) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %v: %w", url, err, errkind.ErrInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	host := req.URL.Host
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(host, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%s: %w", url, errkind.ErrTimeout)
		}
		return fmt.Errorf("%s: %v: %w", url, err, errkind.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(host, "error").Inc()
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(host, "ok").Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading %s: %v: %w", url, err, errkind.ErrUpstreamUnavailable)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %v: %w", url, err, errkind.ErrUpstreamMalformed)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
