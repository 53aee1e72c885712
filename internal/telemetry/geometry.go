// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import "math"

// Header carries the attributes shared by every topic snapshot.
type Header struct {
	// TimestampUnixMs is the producer-assigned capture time.
	TimestampUnixMs int64 `json:"timestampUnixMs"`

	// Seq is the per-topic sequence id, kept as a string so 64-bit values
	// survive JavaScript consumers.
	Seq string `json:"seq"`
}

// Vector3 is a point or direction in meters.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation as (x, y, z, w).
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is a position plus orientation. Yaw is derived from the orientation at
// normalization time so consumers never recompute it.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
	Yaw         float64    `json:"yaw"`
}

// Point2 is a planar point in meters.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Yaw returns the rotation about the vertical axis in radians.
func Yaw(q Quaternion) float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

func normalizeHeader(r Record) (Header, error) {
	ts, err := r.RequiredInt("timestampUnixMs")
	if err != nil {
		return Header{}, err
	}
	seq, err := r.Seq("seq")
	if err != nil {
		return Header{}, err
	}
	return Header{TimestampUnixMs: ts, Seq: seq}, nil
}

func normalizeVector3(r Record) (Vector3, error) {
	var v Vector3
	var err error
	if v.X, err = r.Float("x"); err != nil {
		return Vector3{}, err
	}
	if v.Y, err = r.Float("y"); err != nil {
		return Vector3{}, err
	}
	if v.Z, err = r.Float("z"); err != nil {
		return Vector3{}, err
	}
	return v, nil
}

func normalizeQuaternion(r Record) (Quaternion, error) {
	var q Quaternion
	var err error
	if q.X, err = r.Float("x"); err != nil {
		return Quaternion{}, err
	}
	if q.Y, err = r.Float("y"); err != nil {
		return Quaternion{}, err
	}
	if q.Z, err = r.Float("z"); err != nil {
		return Quaternion{}, err
	}
	if q.W, err = r.Float("w"); err != nil {
		return Quaternion{}, err
	}
	return q, nil
}

// normalizePose rebuilds a pose. Missing position or orientation objects are
// elided defaults and resolve to zero values.
func normalizePose(r Record) (Pose, error) {
	var p Pose

	pos, ok, err := r.Object("position")
	if err != nil {
		return Pose{}, err
	}
	if ok {
		if p.Position, err = normalizeVector3(pos); err != nil {
			return Pose{}, within("position", err)
		}
	}

	orient, ok, err := r.Object("orientation")
	if err != nil {
		return Pose{}, err
	}
	if ok {
		if p.Orientation, err = normalizeQuaternion(orient); err != nil {
			return Pose{}, within("orientation", err)
		}
	}

	p.Yaw = Yaw(p.Orientation)
	return p, nil
}

func normalizePoint2(v any) (Point2, bool) {
	r, ok := asRecord(v)
	if !ok {
		return Point2{}, false
	}
	x, err := r.Float("x")
	if err != nil {
		return Point2{}, false
	}
	y, err := r.Float("y")
	if err != nil {
		return Point2{}, false
	}
	return Point2{X: x, Y: y}, true
}
