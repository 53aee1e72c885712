// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package api

import (
	"bufio"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/telebridge/internal/fanout"
	"github.com/tomtom215/telebridge/internal/logging"
)

// SSE event name for an absence publication.
const sseEventClear = "clear"

// ListTopics handles GET /api/v1/telemetry.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.telemetry.Topics())
}

// Snapshot handles GET /api/v1/telemetry/{topic}. Data is null while the
// topic has no current value. The first request for a topic starts its
// upstream connection.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.feed(w, r)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Success(feed.Latest())
}

// Events handles GET /api/v1/telemetry/{topic}/events as Server-Sent
// Events. Every publication becomes one event named after the topic, and
// an absence becomes "event: clear". Comment lines keep idle proxies from
// closing the stream.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.feed(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		NewResponseWriter(w, r).InternalError("Streaming unsupported", nil)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString("retry: 3000\n\n")
	if bw.Flush() != nil {
		return
	}
	flusher.Flush()

	sub := fanout.Subscribe(feed, fanout.TransportSSE, h.buffer)
	defer sub.Close()

	log := logging.Ctx(r.Context()).With().Str("component", "sse").Str("topic", feed.Name()).Logger()
	log.Debug().Msg("SSE client connected")
	defer log.Debug().Msg("SSE client disconnected")

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.shutdown:
			return
		case f := <-sub.Frames():
			if err := writeEvent(bw, f); err != nil {
				log.Debug().Err(err).Msg("SSE write failed")
				return
			}
			flusher.Flush()
			sub.Delivered()
		case <-keepAlive.C:
			_, _ = bw.WriteString(": keepalive\n\n")
			if bw.Flush() != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(bw *bufio.Writer, f fanout.Frame) error {
	event := f.Topic
	data := []byte("null")
	if f.Clear() {
		event = sseEventClear
	} else {
		var err error
		if data, err = json.Marshal(f.Value); err != nil {
			return err
		}
	}
	_, _ = bw.WriteString("event: ")
	_, _ = bw.WriteString(event)
	_, _ = bw.WriteString("\ndata: ")
	_, _ = bw.Write(data)
	_, _ = bw.WriteString("\n\n")
	return bw.Flush()
}

// WebSocket handles GET /api/v1/telemetry/{topic}/ws.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	feed, ok := h.feed(w, r)
	if !ok {
		return
	}
	h.ws.ServeFeed(w, r, feed)
}
