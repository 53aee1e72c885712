// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package websocket

import (
	"github.com/tomtom215/telebridge/internal/fanout"
)

// Message types.
const (
	// MessageTypeTelemetry carries a snapshot in Data.
	MessageTypeTelemetry = "telemetry"
	// MessageTypeClear means the topic has no current value; Data is null.
	MessageTypeClear = "clear"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// Message is the JSON envelope written to clients.
type Message struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Data  any    `json:"data"`
}

func frameMessage(f fanout.Frame) Message {
	if f.Clear() {
		return Message{Type: MessageTypeClear, Topic: f.Topic}
	}
	return Message{Type: MessageTypeTelemetry, Topic: f.Topic, Data: f.Value}
}
