// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package websocket streams one telemetry topic per WebSocket connection.

Every connection subscribes to a single hub through a fanout.Subscription
and receives JSON envelopes:

	{"type":"telemetry","topic":"pose","data":{...}}
	{"type":"clear","topic":"pose","data":null}

A client may send {"type":"ping"} and gets {"type":"pong"} back. The server
also sends protocol-level pings every 54 seconds and drops clients that do
not answer within 60 seconds.

Each client runs two goroutines: readPump (pings, disconnect detection) and
writePump, which owns every write on the connection.
*/
package websocket
