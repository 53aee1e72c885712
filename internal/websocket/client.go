// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/telebridge/internal/fanout"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var clientIDCounter atomic.Uint64

// Client pumps one topic subscription to one WebSocket connection.
type Client struct {
	id      uint64
	conn    *websocket.Conn
	sub     *fanout.Subscription
	control chan Message
	logger  zerolog.Logger
}

func newClient(conn *websocket.Conn, sub *fanout.Subscription, logger zerolog.Logger) *Client {
	id := clientIDCounter.Add(1)
	return &Client{
		id:      id,
		conn:    conn,
		sub:     sub,
		control: make(chan Message, 4),
		logger:  logger.With().Uint64("client_id", id).Logger(),
	}
}

// ID returns the client's process-unique id.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump handles client pings and detects disconnects. Clients have
// nothing else to say on a telemetry stream.
func (c *Client) readPump() {
	defer c.sub.Close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket client closed unexpectedly")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MessageTypePing {
			select {
			case c.control <- Message{Type: MessageTypePong, Topic: c.sub.Topic()}:
			default:
			}
		}
	}
}

// writePump owns every write on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f := <-c.sub.Frames():
			if err := c.writeJSON(frameMessage(f)); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
			c.sub.Delivered()

		case msg := <-c.control:
			if err := c.writeJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.sub.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) writeJSON(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
