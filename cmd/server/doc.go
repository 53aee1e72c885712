// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Command server runs telebridge: it bridges a robot's telemetry streams
// (status, pose, lidar, map and topology) to HTTP clients as snapshots,
// Server-Sent Events and WebSocket streams, and serves verified model
// assets.
//
// # Startup
//
//  1. Configuration: defaults, then config.yaml (or CONFIG_PATH), then
//     environment variables (koanf v2)
//  2. Logging: zerolog, level and format from the configuration
//  3. Upstream source: websocket (default) or nats
//  4. Bridge: five lazy topic hubs; nothing connects until a client asks
//  5. Model cache: disabled with a warning when the cache dir is unusable
//  6. Supervisor tree: hub-layer (bridge, config watcher) and api-layer
//     (HTTP server)
//
// # Example
//
//	export UPSTREAM_ADDRESS=robot.local:50051
//	export HTTP_PORT=8080
//	export LOG_FORMAT=console
//	./telebridge
//
//	curl localhost:8080/api/v1/telemetry/pose
//	curl -N localhost:8080/api/v1/telemetry/pose/events
//
// SIGINT and SIGTERM stop the HTTP server gracefully (streaming clients are
// disconnected) and close every hub.
package main
