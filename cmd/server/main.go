// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/telebridge/internal/api"
	"github.com/tomtom215/telebridge/internal/bridge"
	"github.com/tomtom215/telebridge/internal/config"
	"github.com/tomtom215/telebridge/internal/logging"
	"github.com/tomtom215/telebridge/internal/metrics"
	"github.com/tomtom215/telebridge/internal/modelcache"
	"github.com/tomtom215/telebridge/internal/supervisor"
	"github.com/tomtom215/telebridge/internal/supervisor/services"
	"github.com/tomtom215/telebridge/internal/upstream"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(Version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", Version).
		Str("transport", cfg.Upstream.Transport).
		Str("upstream", cfg.Upstream.Address).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting telebridge")

	src, err := upstream.NewSource(cfg.Upstream.Transport, cfg.Upstream.Address, cfg.Upstream.SubjectPrefix)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid upstream configuration")
	}

	// Hubs connect lazily, on the first client request for their topic.
	b := bridge.New(cfg.Hubs, src, nil)
	if cfg.Hubs.WarmStart {
		b.Warm()
	}

	var models api.ModelFetcher
	cache, err := modelcache.New(modelcache.Config{
		BaseURL: cfg.Models.BaseURL,
		Dir:     cfg.Models.CacheDir,
		Timeout: cfg.Models.Timeout,
		Breaker: modelcache.DefaultBreakerSettings(),
	})
	if err != nil {
		logging.Warn().Err(err).Str("dir", cfg.Models.CacheDir).Msg("Model cache disabled")
	} else {
		models = cache
	}

	handler := api.NewHandler(b, models, api.HandlerConfig{
		SSEKeepAlive:   cfg.Server.SSEKeepAlive,
		ClientBuffer:   cfg.Server.ClientBuffer,
		AllowedOrigins: cfg.Server.CORSOrigins,
	})
	mw := api.NewChiMiddleware(api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})

	// No WriteTimeout: SSE and WebSocket responses are long-lived.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, mw),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       60 * time.Second,
	}
	server.RegisterOnShutdown(handler.Shutdown)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddHubService(b)
	if path := config.ConfigFile(); path != "" {
		tree.AddHubService(services.NewConfigWatchService(path, nil))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Telebridge stopped")
}
