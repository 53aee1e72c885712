// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

// Topic names. They double as upstream stream names, URL path segments and
// metric labels.
const (
	TopicStatus   = "status"
	TopicPose     = "pose"
	TopicLidar    = "lidar"
	TopicMap      = "map"
	TopicTopology = "topology"
)

// Topics lists every topic in a stable order.
var Topics = []string{TopicStatus, TopicPose, TopicLidar, TopicMap, TopicTopology}

// IsTopic reports whether name is a known topic.
func IsTopic(name string) bool {
	for _, t := range Topics {
		if t == name {
			return true
		}
	}
	return false
}
