// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package modelcache

import "errors"

var (
	// ErrNotFound means the metadata server does not know the model.
	ErrNotFound = errors.New("model not found")

	// ErrInvalidName is returned for names that are not plain file names.
	ErrInvalidName = errors.New("invalid model name")

	// ErrIntegrity means the downloaded bytes do not match the advertised
	// size or SHA-256. Nothing is written to the cache.
	ErrIntegrity = errors.New("model integrity check failed")

	// ErrUnavailable means the metadata server is failing and the circuit
	// breaker is rejecting requests.
	ErrUnavailable = errors.New("model server unavailable")
)
