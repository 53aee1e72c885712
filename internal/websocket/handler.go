// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package websocket

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/telebridge/internal/fanout"
	"github.com/tomtom215/telebridge/internal/hub"
	"github.com/tomtom215/telebridge/internal/logging"
)

// Options configures a Handler.
type Options struct {
	// Buffer is the per-client queue length. Default: fanout.DefaultBuffer.
	Buffer int

	// AllowedOrigins restricts the Origin header. Empty or "*" allows any
	// origin; requests without an Origin header are always allowed.
	AllowedOrigins []string
}

// Handler upgrades requests and streams a hub to each client.
type Handler struct {
	upgrader websocket.Upgrader
	buffer   int

	mu     sync.Mutex
	subs   map[*fanout.Subscription]struct{}
	closed bool
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		buffer: opts.Buffer,
		subs:   make(map[*fanout.Subscription]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			allowed = nil
			break
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeFeed upgrades the request and streams feed until the client leaves
// or Shutdown is called. The first message is the current value, when
// there is one.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request, feed hub.Feed) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Debug().Err(err).Str("topic", feed.Name()).Msg("websocket upgrade failed")
		return
	}

	sub := fanout.Subscribe(feed, fanout.TransportWebSocket, h.buffer)
	if !h.track(sub) {
		sub.Close()
		_ = conn.Close()
		return
	}
	defer h.untrack(sub)

	logger := logging.With().
		Str("component", "websocket").
		Str("topic", feed.Name()).
		Str("request_id", logging.RequestIDFromContext(r.Context())).
		Logger()
	c := newClient(conn, sub, logger)
	logger.Debug().Uint64("client_id", c.ID()).Msg("websocket client connected")

	go c.readPump()
	c.writePump()
	sub.Close()

	logger.Debug().Uint64("client_id", c.ID()).Msg("websocket client disconnected")
}

func (h *Handler) track(sub *fanout.Subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[sub] = struct{}{}
	return true
}

func (h *Handler) untrack(sub *fanout.Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Clients returns the number of connected clients.
func (h *Handler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Shutdown disconnects every client and refuses new ones. Hijacked
// connections are not tracked by http.Server, so register this with
// RegisterOnShutdown.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*fanout.Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}
