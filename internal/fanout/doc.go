// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Package fanout decouples streaming HTTP clients (SSE and WebSocket) from
// the hubs with a bounded, latest-wins queue per client.
package fanout
