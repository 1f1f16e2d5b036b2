package http

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ClientConfig tunes the traced HTTP client built by [NewClient].
// Zero values keep http.DefaultTransport behavior.
type ClientConfig struct {
	// Timeout bounds each request end to end.
	Timeout time.Duration

	// DialTimeout bounds establishing new TCP connections.
	DialTimeout time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers once
	// the request is written.
	ResponseHeaderTimeout time.Duration

	// Connection pool sizing.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int

	// IdleConnTimeout closes keep-alive connections idle for longer.
	IdleConnTimeout time.Duration

	// Base replaces http.DefaultTransport as the transport the tracing
	// wrapper delegates to. The timeout and pool fields above apply
	// only when Base is nil or an *http.Transport.
	Base http.RoundTripper
}

// NewClient builds an http.Client whose transport traces outgoing
// requests. Providers default to the globals; pass [ProviderOptions]
// to pin explicit ones.
func NewClient(cfg ClientConfig, opts ...otelhttp.Option) *http.Client {
	return &http.Client{
		Transport: Transport(cfg.transport(), opts...),
		Timeout:   cfg.Timeout,
	}
}

// Transport wraps base with otelhttp tracing for outgoing requests.
// A nil base falls back to http.DefaultTransport.
func Transport(base http.RoundTripper, opts ...otelhttp.Option) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return otelhttp.NewTransport(base, opts...)
}

// transport realizes the configured base transport. An opaque
// RoundTripper is returned as is; the tuning knobs only exist on
// *http.Transport.
func (cfg ClientConfig) transport() http.RoundTripper {
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	t, ok := base.(*http.Transport)
	if !ok {
		return base
	}

	t = t.Clone()

	if cfg.DialTimeout > 0 {
		t.DialContext = (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	if cfg.TLSHandshakeTimeout > 0 {
		t.TLSHandshakeTimeout = cfg.TLSHandshakeTimeout
	}
	if cfg.ResponseHeaderTimeout > 0 {
		t.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
	}
	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	if cfg.MaxConnsPerHost > 0 {
		t.MaxConnsPerHost = cfg.MaxConnsPerHost
	}
	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}
