// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package logging

import (
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog"
)

// DefaultFailureWindows are the suppression windows applied after each
// logged failure of a class. The last window repeats.
var DefaultFailureWindows = []time.Duration{time.Minute, 5 * time.Minute}

// FailureLogger rate-limits repetitive failure logs per failure class.
//
// The first failure of a class is logged immediately. Further failures are
// counted and suppressed until the current window has elapsed since the last
// logged line; the next failure after that is logged with the suppressed
// count, and the window widens. Success logs a single recovery line and
// resets the class.
//
// A FailureLogger is safe for concurrent use.
type FailureLogger struct {
	mu      sync.Mutex
	clock   clock.Clock
	logger  zerolog.Logger
	windows []time.Duration
	classes map[string]*failureState
}

type failureState struct {
	total           int
	suppressed      int
	suppressedTotal int
	window          int
	firstAt         time.Time
	lastLoggedAt    time.Time
}

// NewFailureLogger creates a FailureLogger. A nil clock means the wall clock;
// empty windows means DefaultFailureWindows.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewFailureLogger(clk clock.Clock, logger zerolog.Logger, windows ...time.Duration) *FailureLogger {
	if clk == nil {
		clk = clock.WallClock
	}
	if len(windows) == 0 {
		windows = DefaultFailureWindows
	}
	return &FailureLogger{
		clock:   clk,
		logger:  logger,
		windows: windows,
		classes: make(map[string]*failureState),
	}
}

// Failure records one failure of class.
func (f *FailureLogger) Failure(class string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	st, ok := f.classes[class]
	if !ok {
		f.classes[class] = &failureState{total: 1, firstAt: now, lastLoggedAt: now}
		f.logger.Warn().Str("class", class).Err(err).Msg("Upstream failure")
		return
	}

	st.total++
	if now.Sub(st.lastLoggedAt) < f.windows[st.window] {
		st.suppressed++
		st.suppressedTotal++
		return
	}

	f.logger.Warn().
		Str("class", class).
		Err(err).
		Int("failures", st.total).
		Int("suppressed", st.suppressed).
		Dur("since_last_log", now.Sub(st.lastLoggedAt)).
		Msg("Upstream failure continues")

	st.suppressed = 0
	st.lastLoggedAt = now
	if st.window < len(f.windows)-1 {
		st.window++
	}
}

// Success marks class as recovered. It is a no-op when the class has no
// recorded failures.
func (f *FailureLogger) Success(class string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.classes[class]
	if !ok {
		return
	}
	f.logger.Info().
		Str("class", class).
		Int("failures", st.total).
		Int("suppressed", st.suppressedTotal).
		Dur("outage", f.clock.Now().Sub(st.firstAt)).
		Msg("Upstream recovered")
	delete(f.classes, class)
}

// Failing reports whether class has unrecovered failures.
func (f *FailureLogger) Failing(class string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.classes[class]
	return ok
}
