package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDoSetsRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	c := New(Options{})
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got == "" {
		t.Error("expected X-Request-Id header")
	}

	// A caller-provided id is kept.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-Id", "caller-1")
	resp, err = c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != "caller-1" {
		t.Errorf("expected caller-1, got %q", got)
	}
}

func TestDoReturnsRedirectsUnfollowed(t *testing.T) {
	var followed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/target" {
			followed = true
			return
		}
		http.Redirect(w, r, "/target", http.StatusFound)
	}))
	defer srv.Close()

	c := New(Options{})
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 returned as-is, got %d", resp.StatusCode)
	}
	if followed {
		t.Error("redirect must not be followed")
	}
}

func TestGetInvalidURL(t *testing.T) {
	c := New(Options{})
	if _, err := c.Get(context.Background(), "http://bad url/"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestReadAllCapsBody(t *testing.T) {
	c := New(Options{MaxResponseBytes: 8})

	data, err := c.ReadAll(io.NopCloser(strings.NewReader("12345678")))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12345678" {
		t.Errorf("expected body at the cap, got %q", data)
	}

	if _, err := c.ReadAll(io.NopCloser(strings.NewReader("123456789"))); !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("expected ErrResponseTooLarge, got %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	c := New(Options{})
	if c.opts.TimeoutMS != defaultTimeoutMS || c.opts.ConnectTimeoutMS != defaultConnectTimeoutMS {
		t.Errorf("timeout defaults not applied: %+v", c.opts)
	}
	if c.opts.MaxResponseBytes != defaultMaxResponseBytes {
		t.Errorf("size cap default not applied: %+v", c.opts)
	}
}
