// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Package upstreamtest provides an in-memory upstream.Source for tests of
// packages that sit above the hubs.
package upstreamtest

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/upstream"
)

// Wait bounds every blocking helper.
const Wait = 5 * time.Second

// Source hands out in-memory streams, queued per topic.
type Source struct {
	mu      sync.Mutex
	streams map[string]chan *Stream
	conns   int
}

var _ upstream.Source = (*Source)(nil)

// NewSource creates an empty Source.
func NewSource() *Source {
	return &Source{streams: make(map[string]chan *Stream)}
}

func (s *Source) queue(topic string) chan *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.streams[topic]
	if !ok {
		ch = make(chan *Stream, 64)
		s.streams[topic] = ch
	}
	return ch
}

// Connect implements upstream.Source.
func (s *Source) Connect(_ context.Context) (upstream.Conn, error) {
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()
	return &conn{src: s}, nil
}

// Connects returns how many connections were opened.
func (s *Source) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

// Next waits for the next stream opened for topic.
func (s *Source) Next(t testing.TB, topic string) *Stream {
	t.Helper()
	select {
	case st := <-s.queue(topic):
		return st
	case <-time.After(Wait):
		t.Fatalf("timed out waiting for a %s stream", topic)
		return nil
	}
}

type conn struct {
	src *Source
}

func (c *conn) OpenStream(_ context.Context, topic string) (upstream.Stream, error) {
	st := &Stream{
		Topic:    topic,
		items:    make(chan item, 64),
		canceled: make(chan struct{}),
	}
	c.src.queue(topic) <- st
	return st, nil
}

func (c *conn) Close() error { return nil }

type item struct {
	rec telemetry.Record
	err error
}

// Stream is one in-memory server stream.
type Stream struct {
	Topic    string
	items    chan item
	canceled chan struct{}
	once     sync.Once
}

// Recv implements upstream.Stream.
func (st *Stream) Recv() (telemetry.Record, error) {
	select {
	case it := <-st.items:
		return it.rec, it.err
	case <-st.canceled:
		return nil, upstream.ErrStreamCanceled
	}
}

// Cancel implements upstream.Stream.
func (st *Stream) Cancel() {
	st.once.Do(func() { close(st.canceled) })
}

// Push delivers rec to the reader.
func (st *Stream) Push(rec telemetry.Record) {
	st.items <- item{rec: rec}
}

// Fail ends the stream with err.
func (st *Stream) Fail(err error) {
	st.items <- item{err: err}
}

// End ends the stream normally.
func (st *Stream) End() {
	st.Fail(io.EOF)
}
