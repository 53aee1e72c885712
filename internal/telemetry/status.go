// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import "strings"

// RateMetric is the measured publish rate of one robot-side data source.
type RateMetric struct {
	Name     string   `json:"name"`
	Hz       float64  `json:"hz"`
	TargetHz *float64 `json:"targetHz"`
}

// StatusSnapshot is the validated robot status.
type StatusSnapshot struct {
	Header

	Mode           string       `json:"mode"`
	BatteryPercent float64      `json:"batteryPercent"`
	BatteryVoltage *float64     `json:"batteryVoltage"`
	Charging       bool         `json:"charging"`
	EmergencyStop  bool         `json:"emergencyStop"`
	UptimeSec      float64      `json:"uptimeSec"`
	CPUTempC       *float64     `json:"cpuTempC"`
	Errors         []string     `json:"errors"`
	Rates          []RateMetric `json:"rates"`
}

// NormalizeStatus validates a status frame.
func NormalizeStatus(r Record) (*StatusSnapshot, error) {
	h, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}
	s := &StatusSnapshot{Header: h}

	if s.Mode, err = r.String("mode"); err != nil {
		return nil, err
	}
	if s.BatteryPercent, err = r.Float("batteryPercent"); err != nil {
		return nil, err
	}
	if s.BatteryVoltage, err = r.OptionalFloat("batteryVoltage"); err != nil {
		return nil, err
	}
	if s.Charging, err = r.Bool("charging"); err != nil {
		return nil, err
	}
	if s.EmergencyStop, err = r.Bool("emergencyStop"); err != nil {
		return nil, err
	}
	if s.UptimeSec, err = r.Float("uptimeSec"); err != nil {
		return nil, err
	}
	if s.CPUTempC, err = r.OptionalFloat("cpuTempC"); err != nil {
		return nil, err
	}

	errs, err := r.List("errors")
	if err != nil {
		return nil, err
	}
	s.Errors = make([]string, 0, len(errs))
	for _, e := range errs {
		if msg, ok := e.(string); ok && strings.TrimSpace(msg) != "" {
			s.Errors = append(s.Errors, msg)
		}
	}

	rates, err := r.List("rates")
	if err != nil {
		return nil, err
	}
	s.Rates = make([]RateMetric, 0, len(rates))
	for _, item := range rates {
		if m, ok := normalizeRateMetric(item); ok {
			s.Rates = append(s.Rates, m)
		}
	}

	return s, nil
}

func normalizeRateMetric(v any) (RateMetric, bool) {
	r, ok := asRecord(v)
	if !ok {
		return RateMetric{}, false
	}
	name, err := r.String("name")
	if err != nil || name == "" {
		return RateMetric{}, false
	}
	hz, err := r.Float("hz")
	if err != nil {
		return RateMetric{}, false
	}
	target, err := r.OptionalFloat("targetHz")
	if err != nil {
		return RateMetric{}, false
	}
	return RateMetric{Name: name, Hz: hz, TargetHz: target}, true
}
