// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/telebridge/internal/logging"
	"github.com/tomtom215/telebridge/internal/metrics"
	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/upstream"
)

// Normalizer validates one upstream record into a snapshot.
type Normalizer[T any] func(telemetry.Record) (*T, error)

// Hub bridges one upstream topic stream to in-process subscribers.
//
// It keeps the latest validated snapshot, publishes nil when the data goes
// away (stream failure, staleness, contract violation) and reconnects with
// tiered backoff. Construction has no side effects: the upstream connection
// is opened by the first Snapshot or Subscribe call.
type Hub[T any] struct {
	cfg       Config
	source    upstream.Source
	normalize Normalizer[T]
	clock     clock.Clock
	logger    zerolog.Logger
	failures  *logging.FailureLogger

	latest atomic.Pointer[T]
	state  atomic.Int32

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	started   atomic.Bool
	closeOnce sync.Once
	events    chan event
	done      chan struct{}

	// pubMu serializes publication and subscription so a subscriber never
	// sees an older value after a newer one.
	pubMu sync.Mutex
	subMu sync.Mutex
	subs  []*subscriber[T]

	// Owned by the loop goroutine.
	gen        uint64
	attempts   int
	gotData    bool
	connLog    zerolog.Logger
	cancelConn context.CancelFunc
	conn       upstream.Conn
	stream     upstream.Stream
	staleTimer clock.Timer
	staleC     <-chan time.Time
	retryTimer clock.Timer
	retryC     <-chan time.Time
	waitTimer  clock.Timer
	waitC      <-chan time.Time
	dropLog    rate.Sometimes
}

type subscriber[T any] struct {
	fn     func(*T)
	active atomic.Bool
}

// New creates a hub for cfg.Name reading from source. Nothing is started.
func New[T any](cfg Config, source upstream.Source, normalize Normalizer[T]) *Hub[T] {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	logger := logging.With().Str("component", "hub").Str("topic", cfg.Name).Logger()
	failures := cfg.Failures
	if failures == nil {
		failures = logging.NewFailureLogger(cfg.Clock, logger)
	}

	return &Hub[T]{
		cfg:       cfg,
		source:    source,
		normalize: normalize,
		clock:     cfg.Clock,
		logger:    logger,
		failures:  failures,
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan event),
		done:      make(chan struct{}),
		connLog:   logger,
		dropLog:   rate.Sometimes{Interval: time.Second},
	}
}

// Name returns the topic name.
func (h *Hub[T]) Name() string {
	return h.cfg.Name
}

// State returns the current connection state.
func (h *Hub[T]) State() State {
	return State(h.state.Load())
}

// Snapshot returns the latest validated value, or nil when there is none.
// The first call starts the upstream connection loop. It never blocks on I/O.
func (h *Hub[T]) Snapshot() *T {
	h.ensureStarted()
	return h.latest.Load()
}

// Subscribe registers fn for every publication, including nil ones. When a
// value is present fn is invoked once with it before Subscribe returns.
//
// fn runs on the hub's goroutine and must not block. It may call the
// returned cancel function, but must not call Subscribe on the same hub.
func (h *Hub[T]) Subscribe(fn func(*T)) (cancel func()) {
	h.ensureStarted()

	s := &subscriber[T]{fn: fn}
	s.active.Store(true)

	h.pubMu.Lock()
	h.subMu.Lock()
	h.subs = append(h.subs, s)
	n := len(h.subs)
	h.subMu.Unlock()
	metrics.SetSubscribers(h.cfg.Name, n)

	if v := h.latest.Load(); v != nil {
		h.deliver(s, v)
	}
	h.pubMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(s) })
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub[T]) SubscriberCount() int {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	return len(h.subs)
}

// Close stops the connection loop, releases the upstream connection and
// clears the latest value. A closed hub never reconnects. A fatal hub keeps
// reporting StateFatal.
func (h *Hub[T]) Close() {
	h.closeOnce.Do(func() {
		h.cancel()
		// Blocks a concurrent first start until it has set started.
		h.startOnce.Do(func() {})
		if h.started.Load() {
			<-h.done
		}
		// The loop has exited, so nothing else writes the state now.
		if h.State() != StateFatal {
			h.setState(StateClosed)
		}
	})
}

func (h *Hub[T]) ensureStarted() {
	h.startOnce.Do(func() {
		if h.ctx.Err() != nil {
			return
		}
		h.started.Store(true)
		go h.run()
	})
}

func (h *Hub[T]) unsubscribe(s *subscriber[T]) {
	s.active.Store(false)

	h.subMu.Lock()
	for i, cur := range h.subs {
		if cur == s {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			break
		}
	}
	n := len(h.subs)
	h.subMu.Unlock()
	metrics.SetSubscribers(h.cfg.Name, n)
}

// publish stores v and delivers it to every active subscriber in
// registration order. A nil is only published when a value was present.
func (h *Hub[T]) publish(v *T, reason string) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	if v == nil {
		if h.latest.Load() == nil {
			return
		}
		metrics.RecordClear(h.cfg.Name, reason)
		h.debug().Str("reason", reason).Msg("Publishing absence")
	}
	h.latest.Store(v)

	h.subMu.Lock()
	subs := make([]*subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.subMu.Unlock()

	for _, s := range subs {
		if s.active.Load() {
			h.deliver(s, v)
		}
	}
}

// deliver isolates subscriber panics from the hub and from other subscribers.
func (h *Hub[T]) deliver(s *subscriber[T], v *T) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSubscriberPanic(h.cfg.Name)
			h.logger.Error().Interface("panic", r).Msg("Subscriber panicked")
		}
	}()
	s.fn(v)
}

func (h *Hub[T]) setState(s State) {
	h.state.Store(int32(s))
	metrics.SetHubState(h.cfg.Name, int(s))
}

// debug returns a nil event unless diagnostics are enabled for the topic;
// zerolog treats calls on a nil event as no-ops.
func (h *Hub[T]) debug() *zerolog.Event {
	if !h.cfg.Debug {
		return nil
	}
	return h.connLog.Info().Bool("diagnostic", true)
}
