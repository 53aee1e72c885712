// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Package modelcache downloads the robot's 3D model assets and keeps
// verified copies on disk.
//
// Metadata ({name, url, sha256, size}) comes from the model server through
// a gobreaker circuit breaker. Downloads are deduplicated per name with
// singleflight, written to a temp file and renamed into place only when
// size and SHA-256 match. A mismatch returns ErrIntegrity and leaves the
// cache untouched.
package modelcache
