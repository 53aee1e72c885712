// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package config loads the service configuration with koanf.

Sources are layered, later ones overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/telebridge/config.yaml
 3. Environment variables listed in envMappings

The result is validated with go-playground/validator before it is returned.

# Environment Variables

Upstream:
  - UPSTREAM_ADDRESS: producer address (default: 127.0.0.1:50051)
  - UPSTREAM_TRANSPORT: websocket or nats (default: websocket)
  - UPSTREAM_SUBJECT_PREFIX: NATS subject prefix (default: telemetry)

Hubs (milliseconds):
  - RECONNECT_BASE_DELAY_MS (2000), RECONNECT_MEDIUM_DELAY_MS (60000), RECONNECT_LONG_DELAY_MS (300000)
  - STALE_TIMEOUT_MS (7000), MAP_STALE_TIMEOUT_MS (7000), TOPOLOGY_STALE_TIMEOUT_MS (7000)
  - WAIT_FOR_DATA_MS (10000, 0 disables)
  - WARM_START: connect every topic at startup (default: false)
  - DEBUG_STATUS, DEBUG_POSE, DEBUG_LIDAR, DEBUG_MAP, DEBUG_TOPOLOGY

HTTP:
  - HTTP_HOST (0.0.0.0), HTTP_PORT (8080)
  - CORS_ORIGINS: comma-separated (default: *)
  - RATE_LIMIT_REQUESTS (120), RATE_LIMIT_WINDOW (1m)
  - HTTP_READ_TIMEOUT (15s), HTTP_SHUTDOWN_TIMEOUT (10s)
  - SSE_KEEPALIVE (15s), CLIENT_BUFFER (16)

Models:
  - MODEL_BASE_URL (http://127.0.0.1:8000), MODEL_CACHE_DIR (/data/models), MODEL_TIMEOUT (60s)

Logging:
  - LOG_LEVEL (info), LOG_FORMAT (json), LOG_CALLER (false)
*/
package config
