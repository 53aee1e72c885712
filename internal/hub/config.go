// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package hub

import (
	"time"

	"github.com/juju/clock"

	"github.com/tomtom215/telebridge/internal/logging"
)

// Default timings.
const (
	DefaultBaseDelay   = 2 * time.Second
	DefaultMediumDelay = 60 * time.Second
	DefaultLongDelay   = 300 * time.Second
	DefaultStaleAfter  = 7 * time.Second
	DefaultWaitForData = 10 * time.Second
)

// Reconnect tiers: attempts 1..baseTierAttempts use BaseDelay, up to
// mediumTierAttempts use MediumDelay, everything after uses LongDelay.
const (
	baseTierAttempts   = 5
	mediumTierAttempts = 10
)

// Config holds per-hub settings.
type Config struct {
	// Name is the topic; it is also the upstream stream name.
	Name string

	BaseDelay   time.Duration
	MediumDelay time.Duration
	LongDelay   time.Duration

	// StaleAfter is the staleness window. The latest value is cleared when
	// no valid frame was published for this long.
	StaleAfter time.Duration

	// WaitForData arms a one-shot warning when an open stream produced no
	// frame. Zero disables it.
	WaitForData time.Duration

	// Debug enables per-frame diagnostics for this topic.
	Debug bool

	// Clock drives every timer. Nil means the wall clock.
	Clock clock.Clock

	// Failures rate-limits connection failure logs. Nil creates a private one.
	Failures *logging.FailureLogger
}

// DefaultConfig returns the default configuration for topic name.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		BaseDelay:   DefaultBaseDelay,
		MediumDelay: DefaultMediumDelay,
		LongDelay:   DefaultLongDelay,
		StaleAfter:  DefaultStaleAfter,
		WaitForData: DefaultWaitForData,
	}
}

// ReconnectDelay returns the delay before reconnect attempt number attempt
// (1-based).
func (c Config) ReconnectDelay(attempt int) time.Duration {
	switch {
	case attempt <= baseTierAttempts:
		return c.BaseDelay
	case attempt <= mediumTierAttempts:
		return c.MediumDelay
	default:
		return c.LongDelay
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.Name)
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MediumDelay <= 0 {
		c.MediumDelay = d.MediumDelay
	}
	if c.LongDelay <= 0 {
		c.LongDelay = d.LongDelay
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.WaitForData < 0 {
		c.WaitForData = 0
	}
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	return c
}
