// Package proxy provides the request proxy that forwards everything the dev
// server does not serve itself to the backend.
package proxy

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/codice/logout-devserver/internal/logger"
)

type Config struct {
	// Target is the backend base URL, e.g. https://localhost:8993
	Target string

	// InsecureSkipVerify accepts the backend's self-signed development certificate
	InsecureSkipVerify bool
}

// New returns a reverse proxy that rewrites each request onto the target.
//
// The request path is appended to the target path, the query is kept, the Host header
// is set to the target host and the X-Forwarded-For/-Host/-Proto headers are set.
// Upstream failures are logged with the request logger and answered with 502 Bad Gateway.
func New(cfg Config) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy target: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported proxy target scheme %q", target.Scheme)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		// #nosec G402 -- development backends use self-signed certificates
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport:    transport,
		ErrorHandler: handleProxyError(target),
	}, nil
}

func handleProxyError(target *url.URL) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("proxy request failed",
			slog.String("target", target.String()),
			slog.String("error", err.Error()),
		)

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("upstream_error", err.Error()),
		)

		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
}
