// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/telebridge/internal/middleware"
)

// slowRequest is the access log threshold for non-streaming requests.
const slowRequest = time.Second

// NewRouter builds the chi router.
func NewRouter(h *Handler, mw *ChiMiddleware) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(slowRequest))
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	// Probes are not rate limited.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/telemetry", func(r chi.Router) {
		r.Use(mw.RateLimit("telemetry"))
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)
		r.Get("/", h.ListTopics)
		r.Get("/{topic}", h.Snapshot)
		r.Get("/{topic}/events", h.Events)
		r.Get("/{topic}/ws", h.WebSocket)
	})

	// Models are served uncompressed so range requests stay valid.
	r.Route("/api/v1/models", func(r chi.Router) {
		r.Use(mw.RateLimit("models"))
		r.Use(APISecurityHeaders())
		r.Get("/{name}", h.Model)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
