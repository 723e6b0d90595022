// Package client provides the default bounded outbound HTTP client for
// binding traffic. Redirects are never followed implicitly; the binding
// layer treats any 3xx as a transport failure. Bodies read through ReadAll
// are capped; content downloads stream uncapped.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var (
	ErrResponseTooLarge = errors.New("response body too large")
	ErrInvalidURL       = errors.New("invalid URL")
)

// Options bound the client's outbound behavior. Zero values fall back to
// the defaults below.
type Options struct {
	TimeoutMS        int
	ConnectTimeoutMS int

	// MaxResponseBytes caps bodies read through ReadAll.
	MaxResponseBytes int64

	// InsecureSkipVerify disables TLS verification, for test servers only.
	InsecureSkipVerify bool
}

const (
	defaultTimeoutMS        = 60000
	defaultConnectTimeoutMS = 5000
	defaultMaxResponseBytes = 32 << 20
)

// Client is a bounded outbound HTTP client. Every request carries an
// X-Request-Id so server logs can be correlated with client traces.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// New creates a bounded client. The client ignores proxy environment
// variables and never follows redirects.
func New(opts Options) *Client {
	if opts.TimeoutMS <= 0 {
		opts.TimeoutMS = defaultTimeoutMS
	}
	if opts.ConnectTimeoutMS <= 0 {
		opts.ConnectTimeoutMS = defaultConnectTimeoutMS
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = defaultMaxResponseBytes
	}

	dialer := &net.Dialer{
		Timeout: time.Duration(opts.ConnectTimeoutMS) * time.Millisecond,
	}
	transport := &http.Transport{
		// Explicitly ignore proxy environment variables.
		Proxy:       nil,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}

	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(opts.TimeoutMS) * time.Millisecond,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Do executes the request. Redirect responses are returned as-is; callers
// decide what a 3xx means.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}
	return c.httpClient.Do(req)
}

// Get issues a GET for the given URL.
func (c *Client) Get(ctx context.Context, urlStr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return c.Do(req)
}

// ReadAll drains and closes the body, enforcing the response size cap.
func (c *Client) ReadAll(body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	limited := io.LimitReader(body, c.opts.MaxResponseBytes+1)
	b, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > c.opts.MaxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	return b, nil
}
