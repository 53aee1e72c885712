// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/telebridge/internal/telemetry"
)

// natsPendingMsgs bounds the per-stream buffer; the producer's rate is a
// few frames per second per topic.
const natsPendingMsgs = 256

// NATSSource reads topic streams from NATS subjects {prefix}.{topic}.
//
// The client's own reconnect logic is disabled: a lost connection ends every
// stream on it so the hub's backoff policy decides when to try again.
type NATSSource struct {
	url    string
	prefix string
}

// NewNATSSource creates a source for address (host:port or a nats:// URL).
func NewNATSSource(address, subjectPrefix string) (*NATSSource, error) {
	if address == "" {
		return nil, fmt.Errorf("nats address: %w", ErrInvalidAddress)
	}
	if !strings.Contains(address, "://") {
		address = "nats://" + address
	}
	return &NATSSource{url: address, prefix: strings.TrimSuffix(subjectPrefix, ".")}, nil
}

// Subject returns the subject carrying topic.
func (s *NATSSource) Subject(topic string) string {
	if s.prefix == "" {
		return topic
	}
	return s.prefix + "." + topic
}

// Connect implements Source.
func (s *NATSSource) Connect(ctx context.Context) (Conn, error) {
	nc, err := nats.Connect(s.url,
		nats.Name("telebridge"),
		nats.NoReconnect(),
		nats.Timeout(10*time.Second),
		nats.SetCustomDialer(&contextDialer{ctx: ctx}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", s.url, err)
	}
	return &natsConn{src: s, nc: nc}, nil
}

// contextDialer ties the TCP dial to the Connect context.
type contextDialer struct {
	ctx context.Context
}

func (d *contextDialer) Dial(network, address string) (net.Conn, error) {
	var dialer net.Dialer
	return dialer.DialContext(d.ctx, network, address)
}

type natsConn struct {
	src  *NATSSource
	nc   *nats.Conn
	once sync.Once
}

func (c *natsConn) OpenStream(_ context.Context, topic string) (Stream, error) {
	if c.nc.IsClosed() {
		return nil, ErrConnClosed
	}
	sub, err := c.nc.SubscribeSync(c.src.Subject(topic))
	if err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return nil, ErrConnClosed
		}
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}
	if err := sub.SetPendingLimits(natsPendingMsgs, -1); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("nats pending limits: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &natsStream{sub: sub, nc: c.nc, ctx: ctx, cancel: cancel}, nil
}

func (c *natsConn) Close() error {
	c.once.Do(c.nc.Close)
	return nil
}

type natsStream struct {
	sub    *nats.Subscription
	nc     *nats.Conn
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *natsStream) Recv() (telemetry.Record, error) {
	for {
		msg, err := s.sub.NextMsgWithContext(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return nil, ErrStreamCanceled
			}
			if errors.Is(err, nats.ErrSlowConsumer) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return nil, fmt.Errorf("nats connection lost: %w", err)
			}
			return nil, fmt.Errorf("nats: %w", err)
		}

		rec, err := telemetry.DecodeRecord(msg.Data)
		if err != nil {
			// One bad payload does not end the subscription.
			continue
		}
		return rec, nil
	}
}

func (s *natsStream) Cancel() {
	s.once.Do(func() {
		s.cancel()
		if !s.nc.IsClosed() {
			_ = s.sub.Unsubscribe()
		}
	})
}
