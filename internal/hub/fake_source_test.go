// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package hub

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/upstream"
)

const testWait = 5 * time.Second

// fakeSource is an in-memory upstream. Every Connect call is announced on
// connects and every opened stream on streams so tests can drive them.
type fakeSource struct {
	mu         sync.Mutex
	connectErr error
	open       int
	maxOpen    int

	connects chan struct{}
	streams  chan *fakeStream
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		connects: make(chan struct{}, 100),
		streams:  make(chan *fakeStream, 100),
	}
}

func (s *fakeSource) setConnectErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectErr = err
}

func (s *fakeSource) openConns() (open, maxOpen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open, s.maxOpen
}

func (s *fakeSource) Connect(_ context.Context) (upstream.Conn, error) {
	s.mu.Lock()
	err := s.connectErr
	if err == nil {
		s.open++
		if s.open > s.maxOpen {
			s.maxOpen = s.open
		}
	}
	s.mu.Unlock()

	s.connects <- struct{}{}
	if err != nil {
		return nil, err
	}
	return &fakeConn{src: s}, nil
}

// waitConnect waits for the next Connect call.
func (s *fakeSource) waitConnect(t *testing.T) {
	t.Helper()
	select {
	case <-s.connects:
	case <-time.After(testWait):
		t.Fatal("timed out waiting for a connect attempt")
	}
}

// expectNoConnect fails when a Connect call happens within d.
func (s *fakeSource) expectNoConnect(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-s.connects:
		t.Fatal("unexpected connect attempt")
	case <-time.After(d):
	}
}

// nextStream waits for the next opened stream.
func (s *fakeSource) nextStream(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case st := <-s.streams:
		return st
	case <-time.After(testWait):
		t.Fatal("timed out waiting for a stream")
		return nil
	}
}

type fakeConn struct {
	src  *fakeSource
	once sync.Once
}

func (c *fakeConn) OpenStream(_ context.Context, topic string) (upstream.Stream, error) {
	st := &fakeStream{
		topic:    topic,
		items:    make(chan streamItem, 16),
		canceled: make(chan struct{}),
	}
	c.src.streams <- st
	return st, nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		c.src.mu.Lock()
		c.src.open--
		c.src.mu.Unlock()
	})
	return nil
}

type streamItem struct {
	rec telemetry.Record
	err error
}

type fakeStream struct {
	topic    string
	items    chan streamItem
	canceled chan struct{}
	once     sync.Once
}

func (st *fakeStream) Recv() (telemetry.Record, error) {
	select {
	case it := <-st.items:
		return it.rec, it.err
	case <-st.canceled:
		return nil, upstream.ErrStreamCanceled
	}
}

func (st *fakeStream) Cancel() {
	st.once.Do(func() { close(st.canceled) })
}

func (st *fakeStream) push(rec telemetry.Record) {
	st.items <- streamItem{rec: rec}
}

func (st *fakeStream) fail(err error) {
	st.items <- streamItem{err: err}
}

// recorder collects publications made to a subscriber.
type recorder[T any] struct {
	ch chan *T
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{ch: make(chan *T, 100)}
}

func (r *recorder[T]) fn(v *T) {
	r.ch <- v
}

func (r *recorder[T]) next(t *testing.T) *T {
	t.Helper()
	select {
	case v := <-r.ch:
		return v
	case <-time.After(testWait):
		t.Fatal("timed out waiting for a publication")
		return nil
	}
}

func (r *recorder[T]) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case v := <-r.ch:
		t.Fatalf("unexpected publication: %+v", v)
	case <-time.After(d):
	}
}

func waitForState[T any](t *testing.T, h *Hub[T], want State) {
	t.Helper()
	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		if h.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("expected state %s, got %s", want, h.State())
}

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) contains(s string) bool {
	return strings.Contains(b.String(), s)
}
