// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Record is one loosely-typed upstream frame: a mapping from wire field name
// to an untyped value as produced by a JSON decoder running with UseNumber.
//
// Every read goes through an accessor that checks presence and type
// explicitly. Accessors come in three flavours:
//
//   - Required*: absent or null is an error
//   - plain (Float, Int, String, Bool): absent or null resolves to the type's
//     zero value, because the wire format elides fields equal to their default
//   - Optional*: absent or null stays nil and is never defaulted
//
// Keys are looked up in lowerCamelCase first and snake_case second.
type Record map[string]any

// number is satisfied by json.Number from both encoding/json and goccy/go-json.
type number interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// get returns the value stored under name (or its snake_case spelling).
// A JSON null is reported as absent.
func (r Record) get(name string) (any, bool) {
	if v, ok := r[name]; ok && v != nil {
		return v, true
	}
	if snake := snakeCase(name); snake != name {
		if v, ok := r[snake]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether name is present with a non-null value.
func (r Record) Has(name string) bool {
	_, ok := r.get(name)
	return ok
}

// RequiredFloat returns a finite number that must be present.
func (r Record) RequiredFloat(name string) (float64, error) {
	v, ok := r.get(name)
	if !ok {
		return 0, fieldErr(name, ErrMissingField)
	}
	return finiteFloat(name, v)
}

// Float returns a finite number, or 0 when the field is absent.
func (r Record) Float(name string) (float64, error) {
	v, ok := r.get(name)
	if !ok {
		return 0, nil
	}
	return finiteFloat(name, v)
}

// OptionalFloat returns a finite number, or nil when the field is absent.
func (r Record) OptionalFloat(name string) (*float64, error) {
	v, ok := r.get(name)
	if !ok {
		return nil, nil
	}
	f, err := finiteFloat(name, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// RequiredInt returns an integral number that must be present.
func (r Record) RequiredInt(name string) (int64, error) {
	v, ok := r.get(name)
	if !ok {
		return 0, fieldErr(name, ErrMissingField)
	}
	return integral(name, v)
}

// Int returns an integral number, or 0 when the field is absent.
func (r Record) Int(name string) (int64, error) {
	v, ok := r.get(name)
	if !ok {
		return 0, nil
	}
	return integral(name, v)
}

// String returns a string, or "" when the field is absent.
func (r Record) String(name string) (string, error) {
	v, ok := r.get(name)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldErr(name, ErrWrongType)
	}
	return s, nil
}

// Bool returns a boolean, or false when the field is absent.
func (r Record) Bool(name string) (bool, error) {
	v, ok := r.get(name)
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fieldErr(name, ErrWrongType)
	}
	return b, nil
}

// Object returns a nested record. The boolean is false when the field is
// absent; a present field that is not an object is an error.
func (r Record) Object(name string) (Record, bool, error) {
	v, ok := r.get(name)
	if !ok {
		return nil, false, nil
	}
	rec, ok := asRecord(v)
	if !ok {
		return nil, false, fieldErr(name, ErrWrongType)
	}
	return rec, true, nil
}

// List returns a nested list, or nil when the field is absent.
func (r Record) List(name string) ([]any, error) {
	v, ok := r.get(name)
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fieldErr(name, ErrWrongType)
	}
	return list, nil
}

// Seq returns the sequence identifier in string form. Numeric and string
// encodings are both accepted; an absent sequence is "0".
func (r Record) Seq(name string) (string, error) {
	v, ok := r.get(name)
	if !ok {
		return "0", nil
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "0", nil
		}
		return s, nil
	case number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		f, err := t.Float64()
		if err != nil || !isFinite(f) || f != math.Trunc(f) {
			return "", fieldErr(name, ErrInvalidValue)
		}
		return t.String(), nil
	case float64:
		if !isFinite(t) || t != math.Trunc(t) {
			return "", fieldErr(name, ErrInvalidValue)
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	default:
		return "", fieldErr(name, ErrWrongType)
	}
}

func asRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	default:
		return nil, false
	}
}

// toFloat converts any decoded numeric representation to float64.
// Numeric strings are accepted because int64 fields travel as strings in the
// proto3 JSON mapping.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case number:
		f, err := t.Float64()
		if err != nil {
			// Out-of-range literals fail with ErrRange but still parse to
			// ±Inf, which the caller reports as non-finite.
			f, err = strconv.ParseFloat(t.String(), 64)
			if err != nil && !math.IsInf(f, 0) {
				return 0, false
			}
		}
		return f, true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func finiteFloat(name string, v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fieldErr(name, ErrWrongType)
	}
	if !isFinite(f) {
		return 0, fieldErr(name, ErrNonFinite)
	}
	return f, nil
}

func integral(name string, v any) (int64, error) {
	if n, ok := v.(number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	if s, ok := v.(string); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := finiteFloat(name, v)
	if err != nil {
		return 0, err
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fieldErr(name, ErrInvalidValue)
	}
	return int64(f), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// snakeCase converts lowerCamelCase to snake_case: timestampUnixMs -> timestamp_unix_ms.
func snakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
