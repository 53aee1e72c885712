// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/telebridge/config.yaml",
	"/etc/telebridge/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Transport:     "websocket",
			Address:       "127.0.0.1:50051",
			SubjectPrefix: "telemetry",
		},
		Hubs: HubsConfig{
			ReconnectBaseDelayMS:   2000,
			ReconnectMediumDelayMS: 60000,
			ReconnectLongDelayMS:   300000,
			StaleTimeoutMS:         7000,
			MapStaleTimeoutMS:      7000,
			TopologyStaleTimeoutMS: 7000,
			WaitForDataMS:          10000,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SSEKeepAlive:    15 * time.Second,
			ClientBuffer:    16,
		},
		Models: ModelsConfig{
			BaseURL:  "http://127.0.0.1:8000",
			CacheDir: "/data/models",
			Timeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration in three layers, each overriding the last:
// built-in defaults, an optional YAML file and environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFile returns the file Load reads, or "" when none exists.
func ConfigFile() string {
	return findConfigFile()
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are given as comma-separated strings in the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables (lower-cased) to config keys.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"upstream_address":        "upstream.address",
	"upstream_transport":      "upstream.transport",
	"upstream_subject_prefix": "upstream.subject_prefix",

	"reconnect_base_delay_ms":   "hubs.reconnect_base_delay_ms",
	"reconnect_medium_delay_ms": "hubs.reconnect_medium_delay_ms",
	"reconnect_long_delay_ms":   "hubs.reconnect_long_delay_ms",
	"stale_timeout_ms":          "hubs.stale_timeout_ms",
	"map_stale_timeout_ms":      "hubs.map_stale_timeout_ms",
	"topology_stale_timeout_ms": "hubs.topology_stale_timeout_ms",
	"wait_for_data_ms":          "hubs.wait_for_data_ms",
	"warm_start":                "hubs.warm_start",

	"debug_status":   "hubs.debug.status",
	"debug_pose":     "hubs.debug.pose",
	"debug_lidar":    "hubs.debug.lidar",
	"debug_map":      "hubs.debug.map",
	"debug_topology": "hubs.debug.topology",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"http_read_timeout":     "server.read_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"sse_keepalive":         "server.sse_keepalive",
	"client_buffer":         "server.client_buffer",

	"model_base_url":  "models.base_url",
	"model_cache_dir": "models.cache_dir",
	"model_timeout":   "models.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes.
// Callers re-run Load and apply what can change at runtime. The returned
// stop function ends the watch.
func WatchConfigFile(path string, callback func()) (stop func() error, err error) {
	fp := file.Provider(path)
	err = fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
	if err != nil {
		return nil, err
	}
	return fp.Unwatch, nil
}
