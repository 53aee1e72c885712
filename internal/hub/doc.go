// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package hub implements the per-topic stream hub: one upstream server stream,
one latest-value cell, many in-process subscribers.

# Lifecycle

	Idle --first Snapshot/Subscribe--> Connecting
	Connecting --first frame--> Active
	Connecting|Active --connect error, stream error or end--> ReconnectScheduled
	ReconnectScheduled --timer--> Connecting
	Active --contract violation--> Fatal (terminal)
	any --Close--> Closed (terminal)

# Guarantees

  - The latest value is cleared (and nil published) when the stream fails,
    when no valid frame arrived within the staleness window, and on a
    contract violation. A cleared value is never resurrected.
  - Subscribers see publications in order, in registration order, with the
    identical pointer that Snapshot returns.
  - nil is only published on a value to absence transition.
  - At most one upstream connection per hub is open at any time.
  - Reconnect delays are tiered by attempt number: 1-5 BaseDelay,
    6-10 MediumDelay, 11+ LongDelay. The counter resets on the first frame
    of a connection.

# Concurrency

Each hub runs a single loop goroutine that owns connection state and timers.
Blocking network calls run on a per-connection goroutine that forwards
frames to the loop tagged with a generation number; anything from an older
generation is discarded. Snapshot reads an atomic pointer and never blocks.

Timers come from github.com/juju/clock so tests drive them with testclock:

	clk := testclock.NewClock(time.Now())
	h := hub.New(hub.Config{Name: "pose", Clock: clk}, src, telemetry.NormalizePose)
*/
package hub
