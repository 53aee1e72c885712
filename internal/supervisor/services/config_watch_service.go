// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/telebridge/internal/config"
	"github.com/tomtom215/telebridge/internal/logging"
)

// ConfigWatchService reloads the configuration file when it changes and
// hands the result to apply. Only settings that are safe to change at
// runtime should be applied; the log level is the default.
type ConfigWatchService struct {
	path  string
	load  func() (*config.Config, error)
	apply func(*config.Config)
}

// NewConfigWatchService watches path. A nil apply updates the global log
// level.
func NewConfigWatchService(path string, apply func(*config.Config)) *ConfigWatchService {
	if apply == nil {
		apply = ApplyLogLevel
	}
	return &ConfigWatchService{path: path, load: config.Load, apply: apply}
}

// ApplyLogLevel sets the global log level from cfg.
func ApplyLogLevel(cfg *config.Config) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if level == logging.GetLevel() {
		return
	}
	logging.SetLevel(level)
	logging.Info().Str("level", level.String()).Msg("Log level changed")
}

// Serve implements suture.Service.
func (s *ConfigWatchService) Serve(ctx context.Context) error {
	stop, err := config.WatchConfigFile(s.path, s.reload)
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	logging.Debug().Str("path", s.path).Msg("Watching config file")

	<-ctx.Done()
	if err := stop(); err != nil {
		logging.Warn().Err(err).Msg("Failed to stop config watch")
	}
	return ctx.Err()
}

func (s *ConfigWatchService) reload() {
	cfg, err := s.load()
	if err != nil {
		logging.Warn().Err(err).Str("path", s.path).Msg("Config reload failed; keeping current settings")
		return
	}
	s.apply(cfg)
}

// String names the service in supervisor logs.
func (s *ConfigWatchService) String() string {
	return "config-watcher"
}
