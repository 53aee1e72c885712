// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import (
	"encoding/base64"
	"math"
	"strconv"
)

// OccupancySnapshot is a validated occupancy grid. The raster is carried
// base64-encoded so HTTP and SSE consumers need no further transcoding.
type OccupancySnapshot struct {
	Header

	FrameID    string  `json:"frameId"`
	Resolution float64 `json:"resolution"`
	Width      int64   `json:"width"`
	Height     int64   `json:"height"`
	Origin     Pose    `json:"origin"`
	DataBase64 string  `json:"dataBase64"`
}

// NormalizeOccupancy validates a map frame. The raster arrives either as a
// base64 string (proto3 JSON bytes) or as a list of cell values; an empty
// raster, or one whose length is not width*height, is rejected.
func NormalizeOccupancy(r Record) (*OccupancySnapshot, error) {
	h, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}
	s := &OccupancySnapshot{Header: h}

	if s.FrameID, err = r.String("frameId"); err != nil {
		return nil, err
	}
	if s.Resolution, err = r.RequiredFloat("resolution"); err != nil {
		return nil, err
	}
	if s.Resolution <= 0 {
		return nil, fieldErr("resolution", ErrInvalidValue)
	}
	if s.Width, err = r.Int("width"); err != nil {
		return nil, err
	}
	if s.Height, err = r.Int("height"); err != nil {
		return nil, err
	}
	// Bounding each side by MaxInt32 keeps width*height inside int64.
	if s.Width <= 0 || s.Width > math.MaxInt32 {
		return nil, fieldErr("width", ErrInvalidValue)
	}
	if s.Height <= 0 || s.Height > math.MaxInt32 {
		return nil, fieldErr("height", ErrInvalidValue)
	}

	origin, ok, err := r.Object("origin")
	if err != nil {
		return nil, err
	}
	if ok {
		if s.Origin, err = normalizePose(origin); err != nil {
			return nil, within("origin", err)
		}
	} else {
		s.Origin.Yaw = Yaw(s.Origin.Orientation)
	}

	data, err := rasterBytes(r)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != s.Width*s.Height {
		return nil, &FieldError{
			Field:  "data",
			Err:    ErrInvalidValue,
			Detail: "got " + strconv.Itoa(len(data)) + " cells for " + strconv.FormatInt(s.Width, 10) + "x" + strconv.FormatInt(s.Height, 10),
		}
	}
	s.DataBase64 = base64.StdEncoding.EncodeToString(data)
	return s, nil
}

func rasterBytes(r Record) ([]byte, error) {
	v, ok := r.get("data")
	if !ok {
		return nil, fieldErr("data", ErrMissingField)
	}

	var data []byte
	switch t := v.(type) {
	case string:
		decoded, ok := decodeBase64(t)
		if !ok {
			return nil, &FieldError{Field: "data", Err: ErrInvalidValue, Detail: "not base64"}
		}
		data = decoded
	case []any:
		data = make([]byte, len(t))
		for i, cell := range t {
			n, err := integral("data["+strconv.Itoa(i)+"]", cell)
			if err != nil {
				return nil, err
			}
			if n < -128 || n > 255 {
				return nil, fieldErr("data["+strconv.Itoa(i)+"]", ErrInvalidValue)
			}
			// Occupancy cells are int8 on the wire (-1 = unknown).
			data[i] = byte(n)
		}
	default:
		return nil, fieldErr("data", ErrWrongType)
	}

	if len(data) == 0 {
		return nil, fieldErr("data", ErrMissingField)
	}
	return data, nil
}

// decodeBase64 accepts the standard and URL-safe alphabets, padded or not,
// as the proto3 JSON mapping does.
func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}
