// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package upstream

import "fmt"

// Supported transports.
const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

// NewSource builds the Source for transport.
func NewSource(transport, address, subjectPrefix string) (Source, error) {
	switch transport {
	case TransportWebSocket, "":
		return NewWebSocketSource(address)
	case TransportNATS:
		return NewNATSSource(address, subjectPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
	}
}
