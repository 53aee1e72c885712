// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// DecodeRecord parses one JSON object into a Record. Numbers are kept as
// json.Number so 64-bit sequence ids and timestamps are not rounded.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("decode record: %w", ErrWrongType)
	}
	return Record(m), nil
}
