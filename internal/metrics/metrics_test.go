// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFrame(t *testing.T) {
	before := testutil.ToFloat64(HubFrames.WithLabelValues("metrics-test", FrameRejected))

	RecordFrame("metrics-test", FrameRejected)
	RecordFrame("metrics-test", FrameRejected)

	got := testutil.ToFloat64(HubFrames.WithLabelValues("metrics-test", FrameRejected))
	if got-before != 2 {
		t.Errorf("expected rejected counter to grow by 2, grew by %v", got-before)
	}
}

func TestRecordFrame_AcceptedSetsLastFrame(t *testing.T) {
	RecordFrame("metrics-last", FrameAccepted)

	ts := testutil.ToFloat64(HubLastFrame.WithLabelValues("metrics-last"))
	if ts < float64(time.Now().Add(-time.Minute).Unix()) {
		t.Errorf("expected a recent last-frame timestamp, got %v", ts)
	}
}

func TestHubGauges(t *testing.T) {
	SetHubState("metrics-gauge", 4)
	SetSubscribers("metrics-gauge", 3)

	if got := testutil.ToFloat64(HubState.WithLabelValues("metrics-gauge")); got != 4 {
		t.Errorf("expected state 4, got %v", got)
	}
	if got := testutil.ToFloat64(HubSubscribers.WithLabelValues("metrics-gauge")); got != 3 {
		t.Errorf("expected 3 subscribers, got %v", got)
	}
}

func TestCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "clear",
			record: func() { RecordClear("metrics-c", ClearStale) },
			read:   func() float64 { return testutil.ToFloat64(HubClears.WithLabelValues("metrics-c", ClearStale)) },
		},
		{
			name:   "reconnect",
			record: func() { RecordReconnect("metrics-c") },
			read:   func() float64 { return testutil.ToFloat64(HubReconnects.WithLabelValues("metrics-c")) },
		},
		{
			name:   "subscriber panic",
			record: func() { RecordSubscriberPanic("metrics-c") },
			read:   func() float64 { return testutil.ToFloat64(HubSubscriberPanics.WithLabelValues("metrics-c")) },
		},
		{
			name:   "model fetch",
			record: func() { RecordModelFetch("hit", 0) },
			read:   func() float64 { return testutil.ToFloat64(ModelFetches.WithLabelValues("hit")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			if got := tt.read(); got-before != 1 {
				t.Errorf("expected counter to grow by 1, grew by %v", got-before)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/telemetry/{topic}", "200"))

	RecordAPIRequest("GET", "/api/v1/telemetry/{topic}", "200", 3*time.Millisecond)

	got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/telemetry/{topic}", "200"))
	if got-before != 1 {
		t.Errorf("expected request counter to grow by 1, grew by %v", got-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("expected %v active requests, got %v", before+1, got)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("expected %v active requests, got %v", before, got)
	}
}
