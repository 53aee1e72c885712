// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package upstream

import (
	"context"
	"errors"

	"github.com/tomtom215/telebridge/internal/telemetry"
)

// ErrStreamCanceled is returned by Recv after Cancel.
var ErrStreamCanceled = errors.New("stream canceled")

// ErrConnClosed is returned by OpenStream on a closed connection.
var ErrConnClosed = errors.New("connection closed")

// ErrInvalidAddress is returned for an address a transport cannot use.
var ErrInvalidAddress = errors.New("invalid upstream address")

// ErrUnknownTransport is returned by NewSource for an unsupported transport.
var ErrUnknownTransport = errors.New("unknown upstream transport")

// Source establishes connections to the telemetry producer.
type Source interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is one established upstream connection.
type Conn interface {
	// OpenStream starts the server stream for topic.
	OpenStream(ctx context.Context, topic string) (Stream, error)

	// Close releases the connection. It is idempotent.
	Close() error
}

// Stream is one open server stream.
type Stream interface {
	// Recv blocks for the next record. io.EOF means the producer ended the
	// stream; any other error is a stream failure.
	Recv() (telemetry.Record, error)

	// Cancel aborts the stream and unblocks a pending Recv. It is idempotent.
	Cancel()
}
