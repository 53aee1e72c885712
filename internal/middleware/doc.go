// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package middleware provides the HTTP middleware shared by the API router.

  - RequestID: X-Request-ID propagation plus a correlation id for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge per chi route
  - Compression: gzip for snapshot and model responses, never for streams
  - AccessLog: debug access log with slow-request warnings
  - Recoverer: panic to 500 with a logged stack

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, middleware.PrometheusMetrics)
*/
package middleware
