// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package api

import (
	"net/http"
	"time"
)

// HealthLive is the liveness probe. It never touches the upstream.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe. A hub stopped by a contract
// violation never recovers without a restart, so it makes the process
// unready. Missing data alone does not: the robot may simply be off.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	fatal := h.telemetry.Fatal()
	ready := len(fatal) == 0
	if fatal == nil {
		fatal = []string{}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).JSON(status, ready, map[string]any{
		"ready":        ready,
		"fatal_topics": fatal,
		"topics":       h.telemetry.Topics(),
		"uptime":       time.Since(h.startTime).Seconds(),
	})
}
