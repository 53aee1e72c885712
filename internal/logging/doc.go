// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Package logging provides centralized zerolog-based structured logging for Telebridge.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once by Init
//   - JSON output for production, console output for development
//   - Correlation ids for upstream connection attempts and HTTP requests
//   - An slog adapter so sutureslog writes into the same stream
//   - FailureLogger, a per-class rate limiter for repetitive failure logs
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("topic", "pose").Msg("Hub started")
//	logging.Error().Err(err).Msg("Contract violation")
//
// # Configuration
//
// Environment Variables (read by internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Failure Logging
//
// Upstream outages produce one failure per reconnect attempt. FailureLogger
// keeps that from flooding the log:
//
//	failures := logging.NewFailureLogger(nil, logging.WithComponent("upstream"))
//	failures.Failure("pose", err)   // logged
//	failures.Failure("pose", err)   // counted, suppressed for 1 minute
//	failures.Success("pose")        // one recovery line, state reset
//
// # Testing
//
// Tests silence output by initializing with io.Discard:
//
//	func init() {
//	    logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
//	}
package logging
