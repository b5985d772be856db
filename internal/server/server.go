// Package server exposes session metrics over HTTP while a session runs.
package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/niktheblak/web-common/pkg/auth"
	"github.com/niktheblak/web-common/pkg/healthcheck"
	"github.com/niktheblak/web-common/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// New returns a handler serving /metrics, guarded by authenticator, and an
// unauthenticated /healthz.
func New(gatherer prometheus.Gatherer, authenticator auth.Authenticator, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if authenticator == nil {
		authenticator = auth.AlwaysAllow()
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", middleware.Authenticator(metricsHandler(gatherer, logger), authenticator))
	mux.Handle("GET /healthz", healthcheck.SimpleHealthCheck(logger))
	return mux
}
