// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package telemetry converts loosely-typed upstream frames into validated,
fully-defaulted snapshots.

Each topic has one pure normalizer:

  - NormalizeStatus: robot status (battery, mode, rate metrics)
  - NormalizePose: pose and motion state
  - NormalizeLidar: planar laser scans
  - NormalizeOccupancy: occupancy grids (raster re-encoded as base64)
  - NormalizeTopology: floor-topology polylines

Normalizers either return a complete snapshot or an error; they never return
a partially filled value. Errors are *FieldError values wrapping one of the
package sentinels, so callers classify them with errors.Is:

	snap, err := telemetry.NormalizeTopology(rec)
	switch {
	case telemetry.IsContractViolation(err):
	    // stop the stream for good
	case err != nil:
	    // drop this frame only
	}

Field Rules:

  - Required numbers must be present and finite.
  - Fields the wire format elides when they equal their default resolve to
    that default (0, "", false).
  - Presence-sensitive fields (battery voltage, localization score, ...) are
    pointers and stay nil when absent.
  - Sequence ids are always strings; an absent sequence is "0".
  - Bad elements of keyed lists (points, polylines, rate metrics) are dropped
    from their list. Positional arrays (lidar ranges) reject the record.

Yaw is derived once from the orientation quaternion:

	yaw = atan2(2*(w*z + x*y), 1 - 2*(y*y + z*z))
*/
package telemetry
