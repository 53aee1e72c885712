// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package bridge wires the five telemetry hubs (status, pose, lidar, map and
topology) to a single upstream source.

The Bridge is also a suture.Service so the supervisor tree can close every
hub on shutdown:

	b := bridge.New(cfg.Hubs, src, nil)
	tree.AddHubService(b)

Hubs stay lazy: nothing connects until an HTTP client asks for a topic, or
Warm is called.
*/
package bridge
