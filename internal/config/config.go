// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package config

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/validation"
)

// Config holds the complete service configuration.
type Config struct {
	Upstream UpstreamConfig `koanf:"upstream"`
	Hubs     HubsConfig     `koanf:"hubs"`
	Server   ServerConfig   `koanf:"server"`
	Models   ModelsConfig   `koanf:"models"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// UpstreamConfig selects and addresses the telemetry producer.
type UpstreamConfig struct {
	Transport     string `koanf:"transport" validate:"oneof=websocket nats"`
	Address       string `koanf:"address" validate:"required"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// HubsConfig holds the reconnect and staleness policy shared by the hubs.
// Durations are in milliseconds to match the environment variables.
type HubsConfig struct {
	ReconnectBaseDelayMS   int `koanf:"reconnect_base_delay_ms" validate:"min=1"`
	ReconnectMediumDelayMS int `koanf:"reconnect_medium_delay_ms" validate:"gtefield=ReconnectBaseDelayMS"`
	ReconnectLongDelayMS   int `koanf:"reconnect_long_delay_ms" validate:"gtefield=ReconnectMediumDelayMS"`

	StaleTimeoutMS         int `koanf:"stale_timeout_ms" validate:"min=1"`
	MapStaleTimeoutMS      int `koanf:"map_stale_timeout_ms" validate:"min=1"`
	TopologyStaleTimeoutMS int `koanf:"topology_stale_timeout_ms" validate:"min=1"`

	// WaitForDataMS is the delay before warning about an open but silent
	// stream. Zero disables the warning.
	WaitForDataMS int `koanf:"wait_for_data_ms" validate:"min=0"`

	// WarmStart opens every topic at startup instead of on first use.
	WarmStart bool `koanf:"warm_start"`

	Debug DebugConfig `koanf:"debug"`
}

// DebugConfig toggles diagnostic logging per topic.
type DebugConfig struct {
	Status   bool `koanf:"status"`
	Pose     bool `koanf:"pose"`
	Lidar    bool `koanf:"lidar"`
	Map      bool `koanf:"map"`
	Topology bool `koanf:"topology"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
	SSEKeepAlive    time.Duration `koanf:"sse_keepalive" validate:"min=0"`
	ClientBuffer    int           `koanf:"client_buffer" validate:"min=1,max=4096"`
}

// ModelsConfig configures the 3D model asset cache.
type ModelsConfig struct {
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	CacheDir string        `koanf:"cache_dir" validate:"required"`
	Timeout  time.Duration `koanf:"timeout" validate:"min=0"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Upstream.Transport == "nats" && c.Upstream.SubjectPrefix == "" {
		return errors.New("upstream.subject_prefix is required for the nats transport")
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReconnectDelays returns the base, medium and long reconnect delays.
func (c *HubsConfig) ReconnectDelays() (base, medium, long time.Duration) {
	return ms(c.ReconnectBaseDelayMS), ms(c.ReconnectMediumDelayMS), ms(c.ReconnectLongDelayMS)
}

// StaleAfter returns the staleness window of topic. Map and topology frames
// have their own overrides.
func (c *HubsConfig) StaleAfter(topic string) time.Duration {
	switch topic {
	case telemetry.TopicMap:
		return ms(c.MapStaleTimeoutMS)
	case telemetry.TopicTopology:
		return ms(c.TopologyStaleTimeoutMS)
	default:
		return ms(c.StaleTimeoutMS)
	}
}

// WaitForData returns the silent-stream warning delay.
func (c *HubsConfig) WaitForData() time.Duration {
	return ms(c.WaitForDataMS)
}

// DebugEnabled reports whether diagnostics are on for topic.
func (c *HubsConfig) DebugEnabled(topic string) bool {
	switch topic {
	case telemetry.TopicStatus:
		return c.Debug.Status
	case telemetry.TopicPose:
		return c.Debug.Pose
	case telemetry.TopicLidar:
		return c.Debug.Lidar
	case telemetry.TopicMap:
		return c.Debug.Map
	case telemetry.TopicTopology:
		return c.Debug.Topology
	default:
		return false
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
