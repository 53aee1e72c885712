// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package services adapts telebridge components to suture.Service.

HTTPServerService binds its listener inside Serve and shuts the server down
gracefully when the supervisor cancels it. ConfigWatchService follows the
config file with fsnotify (through koanf's file provider) and applies the
runtime-safe settings, currently the log level.

The telemetry bridge implements suture.Service itself and needs no wrapper.
*/
package services
