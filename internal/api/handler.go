// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/telebridge/internal/bridge"
	"github.com/tomtom215/telebridge/internal/fanout"
	"github.com/tomtom215/telebridge/internal/hub"
	"github.com/tomtom215/telebridge/internal/modelcache"
	"github.com/tomtom215/telebridge/internal/websocket"
)

// Telemetry is the view of the bridge the handlers need.
type Telemetry interface {
	Feed(topic string) (hub.Feed, bool)
	Topics() []bridge.TopicStatus
	Fatal() []string
}

// ModelFetcher resolves verified model assets.
type ModelFetcher interface {
	Fetch(ctx context.Context, name string) (modelcache.Asset, error)
}

// HandlerConfig tunes the streaming endpoints.
type HandlerConfig struct {
	// SSEKeepAlive is the interval of SSE comment lines. Default: 15s.
	SSEKeepAlive time.Duration
	// ClientBuffer is the per-client queue length for SSE and WebSocket.
	ClientBuffer int
	// AllowedOrigins restricts WebSocket upgrades.
	AllowedOrigins []string
}

// Handler serves the HTTP API.
type Handler struct {
	telemetry Telemetry
	models    ModelFetcher
	ws        *websocket.Handler
	keepAlive time.Duration
	buffer    int
	startTime time.Time

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// NewHandler creates a Handler. models may be nil when model serving is
// not configured; the endpoint then answers 503.
func NewHandler(telemetry Telemetry, models ModelFetcher, cfg HandlerConfig) *Handler {
	if cfg.SSEKeepAlive <= 0 {
		cfg.SSEKeepAlive = 15 * time.Second
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = fanout.DefaultBuffer
	}
	return &Handler{
		telemetry: telemetry,
		models:    models,
		ws: websocket.NewHandler(websocket.Options{
			Buffer:         cfg.ClientBuffer,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		keepAlive: cfg.SSEKeepAlive,
		buffer:    cfg.ClientBuffer,
		startTime: time.Now(),
		shutdown:  make(chan struct{}),
	}
}

// Shutdown ends every streaming response. http.Server.Shutdown waits for
// active requests and never touches hijacked connections, so register it:
//
//	srv.RegisterOnShutdown(handler.Shutdown)
func (h *Handler) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
		h.ws.Shutdown()
	})
}

// feed resolves the {topic} URL parameter, answering 404 itself when the
// topic is unknown.
func (h *Handler) feed(w http.ResponseWriter, r *http.Request) (hub.Feed, bool) {
	topic := chi.URLParam(r, "topic")
	f, ok := h.telemetry.Feed(topic)
	if !ok {
		NewResponseWriter(w, r).NotFound("Unknown telemetry topic: " + topic)
		return nil, false
	}
	return f, true
}
