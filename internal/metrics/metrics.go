// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame results for HubFrames.
const (
	FrameAccepted = "accepted"
	FrameRejected = "rejected"
	FrameFatal    = "fatal"
)

// Clear reasons for HubClears.
const (
	ClearStale     = "stale"
	ClearStreamEnd = "stream_end"
	ClearFatal     = "fatal"
	ClearClosed    = "closed"
)

var (
	// Hub Metrics
	HubFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_hub_frames_total",
			Help: "Upstream frames processed per topic",
		},
		[]string{"topic", "result"}, // result: "accepted", "rejected", "fatal"
	)

	HubClears = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_hub_clears_total",
			Help: "Absence (nil) publications per topic",
		},
		[]string{"topic", "reason"}, // reason: "stale", "stream_end", "fatal", "closed"
	)

	HubReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_hub_reconnect_attempts_total",
			Help: "Scheduled upstream reconnect attempts per topic",
		},
		[]string{"topic"},
	)

	HubState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telebridge_hub_state",
			Help: "Hub connection state (0=idle, 1=connecting, 2=active, 3=reconnect_scheduled, 4=fatal, 5=closed)",
		},
		[]string{"topic"},
	)

	HubSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telebridge_hub_subscribers",
			Help: "Current number of registered subscribers per topic",
		},
		[]string{"topic"},
	)

	HubSubscriberPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_hub_subscriber_panics_total",
			Help: "Subscriber callbacks that panicked during delivery",
		},
		[]string{"topic"},
	)

	HubLastFrame = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telebridge_hub_last_frame_timestamp_seconds",
			Help: "Unix time of the last accepted frame per topic",
		},
		[]string{"topic"},
	)

	// Fan-out Metrics
	FanoutClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telebridge_fanout_clients",
			Help: "Current number of streaming clients",
		},
		[]string{"transport"}, // "sse", "websocket"
	)

	FanoutMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_fanout_messages_total",
			Help: "Messages written to streaming clients",
		},
		[]string{"transport"},
	)

	FanoutDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_fanout_dropped_total",
			Help: "Messages dropped because a streaming client was too slow",
		},
		[]string{"transport"},
	)

	// Model Cache Metrics
	ModelFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telebridge_model_fetches_total",
			Help: "Model asset fetches by outcome",
		},
		[]string{"result"}, // "hit", "downloaded", "integrity_error", "error"
	)

	ModelDownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telebridge_model_download_duration_seconds",
			Help:    "Duration of model asset downloads",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordFrame counts one processed upstream frame.
func RecordFrame(topic, result string) {
	HubFrames.WithLabelValues(topic, result).Inc()
	if result == FrameAccepted {
		HubLastFrame.WithLabelValues(topic).SetToCurrentTime()
	}
}

// RecordClear counts one absence publication.
func RecordClear(topic, reason string) {
	HubClears.WithLabelValues(topic, reason).Inc()
}

// RecordReconnect counts one scheduled reconnect.
func RecordReconnect(topic string) {
	HubReconnects.WithLabelValues(topic).Inc()
}

// SetHubState publishes the numeric hub state.
func SetHubState(topic string, state int) {
	HubState.WithLabelValues(topic).Set(float64(state))
}

// SetSubscribers publishes the subscriber count of a hub.
func SetSubscribers(topic string, n int) {
	HubSubscribers.WithLabelValues(topic).Set(float64(n))
}

// RecordSubscriberPanic counts a recovered subscriber panic.
func RecordSubscriberPanic(topic string) {
	HubSubscriberPanics.WithLabelValues(topic).Inc()
}

// RecordModelFetch counts one model fetch; downloads also observe duration.
func RecordModelFetch(result string, download time.Duration) {
	ModelFetches.WithLabelValues(result).Inc()
	if download > 0 {
		ModelDownloadDuration.Observe(download.Seconds())
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
