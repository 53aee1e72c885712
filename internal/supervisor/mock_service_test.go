// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// mockService counts its runs. It fails the first failures runs and then
// blocks until canceled.
type mockService struct {
	name     string
	failures int32
	starts   atomic.Int32
	stops    atomic.Int32
	started  chan struct{}
}

func newMockService(name string, failures int32) *mockService {
	return &mockService{name: name, failures: failures, started: make(chan struct{}, 100)}
}

func (m *mockService) Serve(ctx context.Context) error {
	n := m.starts.Add(1)
	defer m.stops.Add(1)
	m.started <- struct{}{}

	if n <= m.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string {
	return m.name
}
