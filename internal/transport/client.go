// Package transport builds the HTTP clients used to talk to the aggregator,
// publisher sites and image hosts.
package transport

import (
	"net/http"
	"time"
)

const (
	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 10
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
)

// ClientConfig configures a client. Timeout is required; every outbound
// request in the pipeline is bounded.
type ClientConfig struct {
	Timeout time.Duration
	// Headers are set on every request that does not already carry them.
	Headers http.Header
	// Cookies are attached to every request.
	Cookies []*http.Cookie
	// CookieFunc is called per request for cookies that change over time.
	CookieFunc func() []*http.Cookie
	// NoRedirects returns 3xx responses to the caller instead of following them.
	NoRedirects bool
	// Base is the underlying round tripper. Tests pass httptest transports.
	Base http.RoundTripper
}

// NewClient returns an http.Client with pooled connections, explicit
// timeouts and the configured browser identity.
func NewClient(cfg ClientConfig) *http.Client {
	base := cfg.Base
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          defaultMaxIdleConns,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
			ResponseHeaderTimeout: cfg.Timeout,
		}
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base:       base,
			headers:    cfg.Headers,
			cookies:    cfg.Cookies,
			cookieFunc: cfg.CookieFunc,
		},
	}
	if cfg.NoRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}

// WithoutRedirects returns a shallow copy of c that stops at the first response.
func WithoutRedirects(c *http.Client) *http.Client {
	clone := *c
	clone.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}

type headerTransport struct {
	base       http.RoundTripper
	headers    http.Header
	cookies    []*http.Cookie
	cookieFunc func() []*http.Cookie
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 && len(t.cookies) == 0 && t.cookieFunc == nil {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(req.Context())
	for key, values := range t.headers {
		if out.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			out.Header.Add(key, v)
		}
	}
	for _, c := range t.cookies {
		out.AddCookie(c)
	}
	if t.cookieFunc != nil {
		for _, c := range t.cookieFunc() {
			out.AddCookie(c)
		}
	}

	return t.base.RoundTrip(out)
}
