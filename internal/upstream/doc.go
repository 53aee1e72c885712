// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Package upstream defines the connection capability the hubs consume and
// the two transports that implement it: WebSocket (one socket per topic at
// /streams/{topic}) and NATS (one subject per topic).
package upstream
