// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/telebridge/internal/logging"
	"github.com/tomtom215/telebridge/internal/telemetry"
)

const (
	wsPingInterval   = 30 * time.Second
	wsPongWait       = 60 * time.Second
	wsWriteWait      = 10 * time.Second
	wsHandshakeLimit = 10 * time.Second

	// wsMaxMessageSize bounds one upstream message. Occupancy grids are the
	// largest frames.
	wsMaxMessageSize = 64 << 20
)

// WebSocketSource reaches the producer at ws://{address}/streams/{topic}.
// Each topic stream is its own WebSocket connection, so Connect only
// validates the address and dialing happens in OpenStream.
type WebSocketSource struct {
	base      url.URL
	dialer    websocket.Dialer
	readLimit int64
}

// NewWebSocketSource creates a source for address, which is either host:port
// or a ws:// or wss:// URL.
func NewWebSocketSource(address string) (*WebSocketSource, error) {
	base, err := parseWebSocketAddress(address)
	if err != nil {
		return nil, err
	}
	return &WebSocketSource{
		base: *base,
		dialer: websocket.Dialer{
			HandshakeTimeout:  wsHandshakeLimit,
			EnableCompression: true,
		},
		readLimit: wsMaxMessageSize,
	}, nil
}

func parseWebSocketAddress(address string) (*url.URL, error) {
	if address == "" {
		return nil, fmt.Errorf("websocket address: %w", ErrInvalidAddress)
	}
	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		// host:port without a scheme
		u = &url.URL{Scheme: "ws", Host: address}
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("websocket address %q: %w", address, ErrInvalidAddress)
	}
	return u, nil
}

// Connect implements Source.
func (s *WebSocketSource) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &wsConn{src: s, streams: make(map[*wsStream]struct{})}, nil
}

// StreamURL returns the endpoint of topic.
func (s *WebSocketSource) StreamURL(topic string) string {
	u := s.base
	u.Path = "/streams/" + url.PathEscape(topic)
	return u.String()
}

type wsConn struct {
	src *WebSocketSource

	mu      sync.Mutex
	closed  bool
	streams map[*wsStream]struct{}
}

func (c *wsConn) OpenStream(ctx context.Context, topic string) (Stream, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrConnClosed
	}

	endpoint := c.src.StreamURL(topic)
	ws, resp, err := c.src.dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s (HTTP %d): %w", endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", endpoint, err)
	}

	// The stream request carries no parameters.
	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteMessage(websocket.TextMessage, []byte("{}")); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("websocket stream request: %w", err)
	}

	st := &wsStream{
		ws:      ws,
		topic:   topic,
		done:    make(chan struct{}),
		skipLog: rate.Sometimes{Interval: 10 * time.Second},
	}
	ws.SetReadLimit(c.src.readLimit)
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		st.Cancel()
		return nil, ErrConnClosed
	}
	c.streams[st] = struct{}{}
	c.mu.Unlock()

	go st.pingLoop()
	return st, nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	streams := c.streams
	c.streams = nil
	c.mu.Unlock()

	for st := range streams {
		st.Cancel()
	}
	return nil
}

type wsStream struct {
	ws      *websocket.Conn
	topic   string
	done    chan struct{}
	once    sync.Once
	skipLog rate.Sometimes
}

func (s *wsStream) Recv() (telemetry.Record, error) {
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return nil, ErrStreamCanceled
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		_ = s.ws.SetReadDeadline(time.Now().Add(wsPongWait))

		rec, err := telemetry.DecodeRecord(data)
		if err != nil {
			s.skipLog.Do(func() {
				logging.Warn().Str("topic", s.topic).Err(err).Msg("Skipping undecodable upstream message")
			})
			continue
		}
		return rec, nil
	}
}

func (s *wsStream) Cancel() {
	s.once.Do(func() {
		close(s.done)
		_ = s.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = s.ws.Close()
	})
}

func (s *wsStream) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				// The read side notices the dead connection.
				logging.Debug().Str("topic", s.topic).Err(err).Msg("Upstream ping failed")
				return
			}
		}
	}
}
