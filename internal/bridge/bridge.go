// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package bridge

import (
	"context"
	"sync"

	"github.com/juju/clock"

	"github.com/tomtom215/telebridge/internal/config"
	"github.com/tomtom215/telebridge/internal/hub"
	"github.com/tomtom215/telebridge/internal/logging"
	"github.com/tomtom215/telebridge/internal/telemetry"
	"github.com/tomtom215/telebridge/internal/upstream"
)

// Bridge owns the five topic hubs. They share one upstream source and one
// failure logger, so an outage of the producer is reported once per topic
// class instead of once per reconnect attempt.
type Bridge struct {
	Status   *hub.Hub[telemetry.StatusSnapshot]
	Pose     *hub.Hub[telemetry.PoseSnapshot]
	Lidar    *hub.Hub[telemetry.LidarSnapshot]
	Map      *hub.Hub[telemetry.OccupancySnapshot]
	Topology *hub.Hub[telemetry.TopologySnapshot]

	feeds     []hub.Feed
	byName    map[string]hub.Feed
	failures  *logging.FailureLogger
	closeOnce sync.Once
}

// New builds the hubs. No connection is opened until a hub is first used.
// A nil clk means the wall clock.
func New(cfg config.HubsConfig, src upstream.Source, clk clock.Clock) *Bridge {
	if clk == nil {
		clk = clock.WallClock
	}
	failures := logging.NewFailureLogger(clk, logging.WithComponent("upstream"))

	hubConfig := func(topic string) hub.Config {
		base, medium, long := cfg.ReconnectDelays()
		return hub.Config{
			Name:        topic,
			BaseDelay:   base,
			MediumDelay: medium,
			LongDelay:   long,
			StaleAfter:  cfg.StaleAfter(topic),
			WaitForData: cfg.WaitForData(),
			Debug:       cfg.DebugEnabled(topic),
			Clock:       clk,
			Failures:    failures,
		}
	}

	b := &Bridge{
		Status:   hub.New(hubConfig(telemetry.TopicStatus), src, telemetry.NormalizeStatus),
		Pose:     hub.New(hubConfig(telemetry.TopicPose), src, telemetry.NormalizePose),
		Lidar:    hub.New(hubConfig(telemetry.TopicLidar), src, telemetry.NormalizeLidar),
		Map:      hub.New(hubConfig(telemetry.TopicMap), src, telemetry.NormalizeOccupancy),
		Topology: hub.New(hubConfig(telemetry.TopicTopology), src, telemetry.NormalizeTopology),
		failures: failures,
	}
	b.feeds = []hub.Feed{b.Status, b.Pose, b.Lidar, b.Map, b.Topology}
	b.byName = make(map[string]hub.Feed, len(b.feeds))
	for _, f := range b.feeds {
		b.byName[f.Name()] = f
	}
	return b
}

// Feed returns the hub for topic.
func (b *Bridge) Feed(topic string) (hub.Feed, bool) {
	f, ok := b.byName[topic]
	return f, ok
}

// Feeds returns every hub in topic order.
func (b *Bridge) Feeds() []hub.Feed {
	out := make([]hub.Feed, len(b.feeds))
	copy(out, b.feeds)
	return out
}

// TopicStatus summarizes one hub for the API and readiness checks.
type TopicStatus struct {
	Topic       string    `json:"topic"`
	State       hub.State `json:"state"`
	HasData     bool      `json:"hasData"`
	Subscribers int       `json:"subscribers"`
	// Failing is set while the topic's upstream has unrecovered failures.
	Failing bool `json:"failing"`
}

// Topics reports every hub. It does not start idle hubs.
func (b *Bridge) Topics() []TopicStatus {
	out := make([]TopicStatus, 0, len(b.feeds))
	for _, f := range b.feeds {
		st := f.State()
		hasData := false
		if st != hub.StateIdle {
			hasData = f.Latest() != nil
		}
		out = append(out, TopicStatus{
			Topic:       f.Name(),
			State:       st,
			HasData:     hasData,
			Subscribers: f.SubscriberCount(),
			Failing:     b.failures.Failing(f.Name()),
		})
	}
	return out
}

// Fatal lists topics stopped by a contract violation.
func (b *Bridge) Fatal() []string {
	var out []string
	for _, f := range b.feeds {
		if f.State() == hub.StateFatal {
			out = append(out, f.Name())
		}
	}
	return out
}

// Warm starts every hub's connection loop without waiting for a consumer.
func (b *Bridge) Warm() {
	for _, f := range b.feeds {
		f.Latest()
	}
}

// Close shuts every hub down.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.Status.Close()
		b.Pose.Close()
		b.Lidar.Close()
		b.Map.Close()
		b.Topology.Close()
	})
}

// Serve implements suture.Service: it blocks until ctx ends and then closes
// the hubs. Hubs are never restarted by the supervisor; they reconnect on
// their own.
func (b *Bridge) Serve(ctx context.Context) error {
	logging.Info().Int("topics", len(b.feeds)).Msg("Telemetry bridge running")
	<-ctx.Done()
	b.Close()
	logging.Info().Msg("Telemetry bridge stopped")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (b *Bridge) String() string {
	return "telemetry-bridge"
}
