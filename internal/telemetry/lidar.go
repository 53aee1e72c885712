// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import "strconv"

// LidarSnapshot is one validated planar laser scan.
type LidarSnapshot struct {
	Header

	FrameID        string    `json:"frameId"`
	AngleMin       float64   `json:"angleMin"`
	AngleMax       float64   `json:"angleMax"`
	AngleIncrement float64   `json:"angleIncrement"`
	RangeMin       float64   `json:"rangeMin"`
	RangeMax       float64   `json:"rangeMax"`
	Ranges         []float64 `json:"ranges"`
	Intensities    []float64 `json:"intensities"`
	SensorPose     *Pose     `json:"sensorPose"`
}

// NormalizeLidar validates a scan frame.
//
// Ranges are positional: beam i sits at AngleMin + i*AngleIncrement, so a bad
// entry cannot be dropped without shifting every later beam. Any non-finite
// or non-numeric range rejects the whole scan. Intensities are auxiliary and
// are discarded (left nil) when they do not line up with the ranges.
func NormalizeLidar(r Record) (*LidarSnapshot, error) {
	h, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}
	s := &LidarSnapshot{Header: h}

	if s.FrameID, err = r.String("frameId"); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"angleMin", &s.AngleMin},
		{"angleMax", &s.AngleMax},
		{"angleIncrement", &s.AngleIncrement},
		{"rangeMin", &s.RangeMin},
		{"rangeMax", &s.RangeMax},
	} {
		if *f.dst, err = r.Float(f.name); err != nil {
			return nil, err
		}
	}

	raw, err := r.List("ranges")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fieldErr("ranges", ErrMissingField)
	}
	s.Ranges = make([]float64, len(raw))
	for i, v := range raw {
		f, err := finiteFloat("ranges["+strconv.Itoa(i)+"]", v)
		if err != nil {
			return nil, err
		}
		s.Ranges[i] = f
	}

	if rawI, err := r.List("intensities"); err == nil && len(rawI) == len(raw) {
		intensities := make([]float64, len(rawI))
		valid := true
		for i, v := range rawI {
			f, ok := toFloat(v)
			if !ok || !isFinite(f) {
				valid = false
				break
			}
			intensities[i] = f
		}
		if valid {
			s.Intensities = intensities
		}
	}

	sensor, ok, err := r.Object("sensorPose")
	if err != nil {
		return nil, err
	}
	if ok {
		p, err := normalizePose(sensor)
		if err != nil {
			return nil, within("sensorPose", err)
		}
		s.SensorPose = &p
	}

	return s, nil
}
