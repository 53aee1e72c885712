// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package api serves telemetry, model assets and probes over HTTP with chi.

# Endpoints

	GET /api/v1/telemetry                 topic list with state and subscribers
	GET /api/v1/telemetry/{topic}         latest snapshot, data is null when absent
	GET /api/v1/telemetry/{topic}/events  Server-Sent Events
	GET /api/v1/telemetry/{topic}/ws      WebSocket
	GET /api/v1/models/{name}             verified model asset
	GET /api/v1/health/live               liveness
	GET /api/v1/health/ready              readiness, 503 when a topic is fatal
	GET /metrics                          Prometheus

JSON responses share one envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", ...}}

Errors carry "error": {"code": "NOT_FOUND", "message": "..."}.

# Middleware

Global: request id, panic recovery, Prometheus request metrics, access log
and CORS (go-chi/cors). Telemetry and model routes are rate limited per
client IP with go-chi/httprate; telemetry responses are gzip compressed
except for the streaming endpoints.

# Streaming

SSE events are named after the topic, with "event: clear" when the value
goes away:

	event: pose
	data: {"timestampUnixMs":1000,"seq":"5",...}

	event: clear
	data: null

Both streaming transports queue at most HandlerConfig.ClientBuffer frames
per client and discard the oldest frame when a client falls behind.
*/
package api
