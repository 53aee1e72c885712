// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

// Velocity is the planar body velocity.
type Velocity struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// PoseSnapshot is the validated robot pose and motion state.
type PoseSnapshot struct {
	Header

	FrameID           string   `json:"frameId"`
	Pose              Pose     `json:"pose"`
	Velocity          Velocity `json:"velocity"`
	LocalizationScore *float64 `json:"localizationScore"`
}

// NormalizePose validates a pose/state frame. The pose object itself is
// required; its members follow the default-elision rules.
func NormalizePose(r Record) (*PoseSnapshot, error) {
	h, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}
	s := &PoseSnapshot{Header: h}

	if s.FrameID, err = r.String("frameId"); err != nil {
		return nil, err
	}

	pose, ok, err := r.Object("pose")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fieldErr("pose", ErrMissingField)
	}
	if s.Pose, err = normalizePose(pose); err != nil {
		return nil, within("pose", err)
	}

	vel, ok, err := r.Object("velocity")
	if err != nil {
		return nil, err
	}
	if ok {
		if s.Velocity.Linear, err = vel.Float("linear"); err != nil {
			return nil, within("velocity", err)
		}
		if s.Velocity.Angular, err = vel.Float("angular"); err != nil {
			return nil, within("velocity", err)
		}
	}

	if s.LocalizationScore, err = r.OptionalFloat("localizationScore"); err != nil {
		return nil, err
	}
	return s, nil
}
