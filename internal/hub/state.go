// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package hub

// State is the connection state of a hub.
type State int32

const (
	// StateIdle means nobody has asked for the topic yet.
	StateIdle State = iota
	// StateConnecting means a connection attempt or stream open is in flight,
	// or the stream is open but has not produced a frame.
	StateConnecting
	// StateActive means the stream has produced at least one frame.
	StateActive
	// StateReconnectScheduled means a reconnect timer is pending.
	StateReconnectScheduled
	// StateFatal is terminal: the producer violated the stream contract.
	StateFatal
	// StateClosed is terminal: the hub was shut down.
	StateClosed
)

// String returns the lowercase state name used in logs and the API.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateReconnectScheduled:
		return "reconnect_scheduled"
	case StateFatal:
		return "fatal"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state as its name in JSON responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
