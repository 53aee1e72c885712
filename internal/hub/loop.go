// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package hub

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/telebridge/internal/logging"
	"github.com/tomtom215/telebridge/internal/metrics"
	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/upstream"
)

type eventKind int

const (
	// evOpened carries a connected stream.
	evOpened eventKind = iota
	// evFrame carries one upstream record.
	evFrame
	// evFailed reports a connect/open failure or the end of a stream.
	evFailed
)

// event is sent from a connection goroutine to the loop. gen identifies the
// connection; events of a torn-down connection are discarded.
type event struct {
	gen    uint64
	kind   eventKind
	rec    telemetry.Record
	err    error
	conn   upstream.Conn
	stream upstream.Stream
}

// run is the hub's event loop. It is the only goroutine that touches
// connection state, the attempt counter and the timers.
func (h *Hub[T]) run() {
	defer close(h.done)

	h.logger.Debug().Msg("Hub started")
	h.connect()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case ev := <-h.events:
			h.handle(ev)

		case <-h.staleC:
			h.staleC, h.staleTimer = nil, nil
			h.debug().Dur("window", h.cfg.StaleAfter).Msg("No frame inside the staleness window")
			h.publish(nil, metrics.ClearStale)

		case <-h.retryC:
			h.retryC, h.retryTimer = nil, nil
			h.connect()

		case <-h.waitC:
			h.waitC, h.waitTimer = nil, nil
			h.connLog.Warn().Dur("waited", h.cfg.WaitForData).Msg("Stream open but no data received yet")
		}

		if h.State() == StateFatal {
			return
		}
	}
}

// connect starts a new connection generation.
func (h *Hub[T]) connect() {
	h.gen++
	h.gotData = false

	connID := logging.GenerateCorrelationID()
	h.connLog = h.logger.With().Str("conn_id", connID).Logger()

	ctx, cancel := context.WithCancel(logging.ContextWithCorrelationID(h.ctx, connID))
	h.cancelConn = cancel
	h.setState(StateConnecting)
	h.debug().Int("attempt", h.attempts).Msg("Connecting")

	go h.runConnection(ctx, h.gen)
}

// runConnection performs the blocking network work of one generation.
func (h *Hub[T]) runConnection(ctx context.Context, gen uint64) {
	conn, err := h.source.Connect(ctx)
	if err != nil {
		h.send(ctx, event{gen: gen, kind: evFailed, err: fmt.Errorf("connect: %w", err)})
		return
	}

	stream, err := conn.OpenStream(ctx, h.cfg.Name)
	if err != nil {
		_ = conn.Close()
		h.send(ctx, event{gen: gen, kind: evFailed, err: fmt.Errorf("open stream: %w", err)})
		return
	}

	if !h.send(ctx, event{gen: gen, kind: evOpened, conn: conn, stream: stream}) {
		stream.Cancel()
		_ = conn.Close()
		return
	}

	for {
		rec, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("stream ended: %w", err)
			} else {
				err = fmt.Errorf("stream: %w", err)
			}
			h.send(ctx, event{gen: gen, kind: evFailed, err: err})
			return
		}
		if !h.send(ctx, event{gen: gen, kind: evFrame, rec: rec}) {
			return
		}
	}
}

func (h *Hub[T]) send(ctx context.Context, ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Hub[T]) handle(ev event) {
	if ev.gen != h.gen {
		// A lingering handle from a torn-down connection.
		if ev.kind == evOpened {
			ev.stream.Cancel()
			_ = ev.conn.Close()
		}
		return
	}

	switch ev.kind {
	case evOpened:
		h.conn, h.stream = ev.conn, ev.stream
		h.debug().Msg("Stream opened")
		if h.cfg.WaitForData > 0 {
			h.waitTimer = h.clock.NewTimer(h.cfg.WaitForData)
			h.waitC = h.waitTimer.Chan()
		}

	case evFrame:
		h.handleFrame(ev.rec)

	case evFailed:
		h.handleFailure(ev.err)
	}
}

func (h *Hub[T]) handleFrame(rec telemetry.Record) {
	if !h.gotData {
		h.gotData = true
		h.attempts = 0
		h.stopWaitTimer()
		h.failures.Success(h.cfg.Name)
		h.setState(StateActive)
		h.connLog.Info().Msg("Receiving data")
	}

	snap, err := h.normalize(rec)
	if err != nil {
		if telemetry.IsContractViolation(err) {
			h.fail(err)
			return
		}
		metrics.RecordFrame(h.cfg.Name, metrics.FrameRejected)
		if h.cfg.Debug {
			h.dropLog.Do(func() {
				h.debug().Err(err).Msg("Dropped invalid frame")
			})
		}
		return
	}

	metrics.RecordFrame(h.cfg.Name, metrics.FrameAccepted)
	// Armed before publishing so the window covers subscriber work.
	h.armStaleTimer()
	h.publish(snap, "")
}

// handleFailure ends the current connection and schedules the next one.
func (h *Hub[T]) handleFailure(err error) {
	h.teardown()
	h.stopStaleTimer()
	h.publish(nil, metrics.ClearStreamEnd)
	h.failures.Failure(h.cfg.Name, err)
	h.scheduleReconnect()
}

// fail is the terminal path for contract violations.
func (h *Hub[T]) fail(err error) {
	metrics.RecordFrame(h.cfg.Name, metrics.FrameFatal)
	h.teardown()
	h.stopStaleTimer()
	h.stopRetryTimer()
	h.publish(nil, metrics.ClearFatal)
	h.setState(StateFatal)
	h.connLog.Error().Err(err).Msg("Upstream contract violation; topic stopped permanently")
}

// scheduleReconnect is idempotent while a reconnect is pending.
func (h *Hub[T]) scheduleReconnect() {
	if h.retryC != nil {
		return
	}
	h.attempts++
	delay := h.cfg.ReconnectDelay(h.attempts)
	metrics.RecordReconnect(h.cfg.Name)
	h.debug().Int("attempt", h.attempts).Dur("delay", delay).Msg("Reconnect scheduled")

	h.retryTimer = h.clock.NewTimer(delay)
	h.retryC = h.retryTimer.Chan()
	h.setState(StateReconnectScheduled)
}

// teardown cancels the stream and closes the connection of the current
// generation. Events already in flight for it are discarded afterwards.
func (h *Hub[T]) teardown() {
	h.gen++
	if h.cancelConn != nil {
		h.cancelConn()
		h.cancelConn = nil
	}
	if h.stream != nil {
		h.stream.Cancel()
		h.stream = nil
	}
	if h.conn != nil {
		if err := h.conn.Close(); err != nil {
			h.debug().Err(err).Msg("Closing connection failed")
		}
		h.conn = nil
	}
	h.stopWaitTimer()
}

func (h *Hub[T]) shutdown() {
	h.teardown()
	h.stopStaleTimer()
	h.stopRetryTimer()
	h.publish(nil, metrics.ClearClosed)
	h.logger.Debug().Msg("Hub stopped")
}

func (h *Hub[T]) armStaleTimer() {
	h.stopStaleTimer()
	h.staleTimer = h.clock.NewTimer(h.cfg.StaleAfter)
	h.staleC = h.staleTimer.Chan()
}

func (h *Hub[T]) stopStaleTimer() {
	if h.staleTimer != nil {
		h.staleTimer.Stop()
	}
	h.staleTimer, h.staleC = nil, nil
}

func (h *Hub[T]) stopRetryTimer() {
	if h.retryTimer != nil {
		h.retryTimer.Stop()
	}
	h.retryTimer, h.retryC = nil, nil
}

func (h *Hub[T]) stopWaitTimer() {
	if h.waitTimer != nil {
		h.waitTimer.Stop()
	}
	h.waitTimer, h.waitC = nil, nil
}
