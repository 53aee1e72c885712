// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import (
	"fmt"
	"strconv"
)

// TopologyFrame is the only reference frame floor-topology geometry may be
// expressed in.
const TopologyFrame = "base_footprint"

// Polyline is one validated floor-topology element (lane, wall, zone edge).
type Polyline struct {
	ID      string   `json:"id"`
	FrameID string   `json:"frameId"`
	Kind    string   `json:"kind"`
	Closed  bool     `json:"closed"`
	Points  []Point2 `json:"points"`
}

// TopologySnapshot is the validated floor topology.
type TopologySnapshot struct {
	Header

	Polylines []Polyline `json:"polylines"`
}

// NormalizeTopology validates a floor-topology frame.
//
// Malformed points are dropped, and a polyline left with fewer than two
// points is dropped. A polyline declared in any frame other than
// TopologyFrame is a contract violation: the returned error wraps
// ErrContractViolation and the caller must stop consuming the stream.
func NormalizeTopology(r Record) (*TopologySnapshot, error) {
	h, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}
	s := &TopologySnapshot{Header: h}

	raw, err := r.List("polylines")
	if err != nil {
		return nil, err
	}
	s.Polylines = make([]Polyline, 0, len(raw))
	for i, item := range raw {
		pl, ok, err := normalizePolyline(item)
		if err != nil {
			return nil, within("polylines["+strconv.Itoa(i)+"]", err)
		}
		if ok {
			s.Polylines = append(s.Polylines, pl)
		}
	}
	return s, nil
}

// normalizePolyline returns ok=false for an element that should be dropped
// and a non-nil error only for a contract violation.
func normalizePolyline(v any) (Polyline, bool, error) {
	r, ok := asRecord(v)
	if !ok {
		return Polyline{}, false, nil
	}

	frame, err := r.String("frameId")
	if err != nil || frame != TopologyFrame {
		return Polyline{}, false, &FieldError{
			Field:  "frameId",
			Err:    ErrContractViolation,
			Detail: fmt.Sprintf("got %q, want %q", frame, TopologyFrame),
		}
	}

	var pl Polyline
	pl.FrameID = frame
	if pl.ID, err = r.String("id"); err != nil {
		return Polyline{}, false, nil
	}
	if pl.Kind, err = r.String("kind"); err != nil {
		return Polyline{}, false, nil
	}
	if pl.Closed, err = r.Bool("closed"); err != nil {
		return Polyline{}, false, nil
	}

	points, err := r.List("points")
	if err != nil {
		return Polyline{}, false, nil
	}
	pl.Points = make([]Point2, 0, len(points))
	for _, p := range points {
		if pt, ok := normalizePoint2(p); ok {
			pl.Points = append(pl.Points, pt)
		}
	}
	if len(pl.Points) < 2 {
		return Polyline{}, false, nil
	}
	return pl, true, nil
}
