// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package fanout

import (
	"sync"

	"github.com/tomtom215/telebridge/internal/hub"
	"github.com/tomtom215/telebridge/internal/metrics"
)

// Transport labels for metrics.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// DefaultBuffer is the per-client queue length.
const DefaultBuffer = 16

// Frame is one publication of a hub. A nil Value means the data went away.
type Frame struct {
	Topic string
	Value any
}

// Clear reports whether the frame signals absence.
func (f Frame) Clear() bool {
	return f.Value == nil
}

// Subscription queues a feed's publications for one streaming client.
//
// The hub delivers on its own goroutine and must never wait for a client,
// so the queue is bounded: when it is full the oldest queued frame is
// discarded in favour of the new one. Telemetry is latest-wins, so the
// client always ends on the current state.
type Subscription struct {
	topic     string
	transport string
	frames    chan Frame
	done      chan struct{}
	cancel    func()
	closeOnce sync.Once
}

// Subscribe attaches a client to feed. When the feed holds a value it is
// queued before Subscribe returns.
func Subscribe(feed hub.Feed, transport string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		topic:     feed.Name(),
		transport: transport,
		frames:    make(chan Frame, buffer),
		done:      make(chan struct{}),
	}
	metrics.FanoutClients.WithLabelValues(transport).Inc()
	s.cancel = feed.Watch(s.push)
	return s
}

// push runs on the hub goroutine.
func (s *Subscription) push(v any) {
	select {
	case <-s.done:
		return
	default:
	}

	f := Frame{Topic: s.topic, Value: v}
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		// Full: make room by discarding the oldest frame.
		select {
		case <-s.frames:
			metrics.FanoutDropped.WithLabelValues(s.transport).Inc()
		default:
		}
	}
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Frames returns the queue. It is never closed; select on Done as well.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Done is closed by Close.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Delivered counts one frame written to the client.
func (s *Subscription) Delivered() {
	metrics.FanoutMessages.WithLabelValues(s.transport).Inc()
}

// Close detaches from the feed. It is idempotent and safe to call from any
// goroutine.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		metrics.FanoutClients.WithLabelValues(s.transport).Dec()
	})
}
