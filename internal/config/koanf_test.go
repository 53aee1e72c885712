// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/telebridge/internal/validation"
)

// isolate points CONFIG_PATH at a missing file so a stray config.yaml in
// the working directory cannot leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Upstream.Address != "127.0.0.1:50051" {
		t.Errorf("Upstream.Address = %q", cfg.Upstream.Address)
	}
	if cfg.Upstream.Transport != "websocket" {
		t.Errorf("Upstream.Transport = %q", cfg.Upstream.Transport)
	}

	base, medium, long := cfg.Hubs.ReconnectDelays()
	if base != 2*time.Second || medium != time.Minute || long != 5*time.Minute {
		t.Errorf("ReconnectDelays = %v %v %v", base, medium, long)
	}
	for _, topic := range []string{"status", "pose", "lidar", "map", "topology"} {
		if got := cfg.Hubs.StaleAfter(topic); got != 7*time.Second {
			t.Errorf("StaleAfter(%s) = %v, want 7s", topic, got)
		}
		if cfg.Hubs.DebugEnabled(topic) {
			t.Errorf("DebugEnabled(%s) should default to false", topic)
		}
	}
	if cfg.Hubs.WaitForData() != 10*time.Second {
		t.Errorf("WaitForData = %v", cfg.Hubs.WaitForData())
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr())
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("UPSTREAM_ADDRESS", "10.0.0.5:9000")
	t.Setenv("RECONNECT_BASE_DELAY_MS", "500")
	t.Setenv("MAP_STALE_TIMEOUT_MS", "15000")
	t.Setenv("TOPOLOGY_STALE_TIMEOUT_MS", "30000")
	t.Setenv("DEBUG_LIDAR", "true")
	t.Setenv("WARM_START", "true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_SETTING", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Upstream.Address != "10.0.0.5:9000" {
		t.Errorf("Upstream.Address = %q", cfg.Upstream.Address)
	}
	if base, _, _ := cfg.Hubs.ReconnectDelays(); base != 500*time.Millisecond {
		t.Errorf("base delay = %v", base)
	}
	if got := cfg.Hubs.StaleAfter("map"); got != 15*time.Second {
		t.Errorf("StaleAfter(map) = %v", got)
	}
	if got := cfg.Hubs.StaleAfter("topology"); got != 30*time.Second {
		t.Errorf("StaleAfter(topology) = %v", got)
	}
	if got := cfg.Hubs.StaleAfter("pose"); got != 7*time.Second {
		t.Errorf("StaleAfter(pose) = %v, the map override must not leak", got)
	}
	if !cfg.Hubs.DebugEnabled("lidar") || cfg.Hubs.DebugEnabled("pose") {
		t.Errorf("Debug = %+v", cfg.Hubs.Debug)
	}
	if !cfg.Hubs.WarmStart {
		t.Error("WARM_START should enable Hubs.WarmStart")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Server.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "telebridge.yaml")
	yaml := `
upstream:
  transport: nats
  address: nats.local:4222
  subject_prefix: robot1
hubs:
  stale_timeout_ms: 3000
server:
  cors_origins:
    - https://ui.example
  sse_keepalive: 5s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("STALE_TIMEOUT_MS", "4000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Upstream.Transport != "nats" || cfg.Upstream.SubjectPrefix != "robot1" {
		t.Errorf("Upstream = %+v", cfg.Upstream)
	}
	if got := cfg.Hubs.StaleAfter("status"); got != 4*time.Second {
		t.Errorf("expected env to override the file, got %v", got)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://ui.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.SSEKeepAlive != 5*time.Second {
		t.Errorf("SSEKeepAlive = %v", cfg.Server.SSEKeepAlive)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("upstream: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown transport", func(c *Config) { c.Upstream.Transport = "grpc" }, true},
		{"empty address", func(c *Config) { c.Upstream.Address = "" }, true},
		{"zero base delay", func(c *Config) { c.Hubs.ReconnectBaseDelayMS = 0 }, true},
		{"medium below base", func(c *Config) { c.Hubs.ReconnectMediumDelayMS = 1000 }, true},
		{"long below medium", func(c *Config) { c.Hubs.ReconnectLongDelayMS = 30000 }, true},
		{"zero stale window", func(c *Config) { c.Hubs.MapStaleTimeoutMS = 0 }, true},
		{"wait for data disabled", func(c *Config) { c.Hubs.WaitForDataMS = 0 }, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad model url", func(c *Config) { c.Models.BaseURL = "not a url" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"nats without prefix", func(c *Config) {
			c.Upstream.Transport = "nats"
			c.Upstream.SubjectPrefix = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsFieldPath(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0

	var verr *validation.Error
	if err := cfg.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if verr.Fields[0].Field != "Config.Server.Port" {
		t.Errorf("Field = %q", verr.Fields[0].Field)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"UPSTREAM_ADDRESS": "upstream.address",
		"DEBUG_TOPOLOGY":   "hubs.debug.topology",
		"http_port":        "server.port",
		"PATH":             "",
		"HOME":             "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
