// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Hub Metrics (label: topic):
  - telebridge_hub_frames_total: frames by result (accepted, rejected, fatal)
  - telebridge_hub_clears_total: nil publications by reason (stale, stream_end, fatal, closed)
  - telebridge_hub_reconnect_attempts_total: scheduled reconnects
  - telebridge_hub_state: 0=idle 1=connecting 2=active 3=reconnect_scheduled 4=fatal 5=closed
  - telebridge_hub_subscribers: registered subscribers
  - telebridge_hub_subscriber_panics_total: recovered subscriber panics
  - telebridge_hub_last_frame_timestamp_seconds: last accepted frame

Fan-out Metrics (label: transport = sse, websocket):
  - telebridge_fanout_clients, telebridge_fanout_messages_total,
    telebridge_fanout_dropped_total

Model Cache Metrics:
  - telebridge_model_fetches_total (label: result)
  - telebridge_model_download_duration_seconds

Circuit Breaker Metrics (label: name):
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total

# Example Queries

Rejected frame ratio per topic:

	sum by (topic) (rate(telebridge_hub_frames_total{result="rejected"}[5m]))
	  / sum by (topic) (rate(telebridge_hub_frames_total[5m]))

Topics currently without data:

	telebridge_hub_state != 2
*/
package metrics
