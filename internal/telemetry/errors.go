// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package telemetry

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a required field is absent or null.
var ErrMissingField = errors.New("missing required field")

// ErrWrongType is returned when a field holds a value of the wrong JSON type.
var ErrWrongType = errors.New("wrong field type")

// ErrNonFinite is returned when a numeric field is NaN or infinite.
var ErrNonFinite = errors.New("non-finite number")

// ErrInvalidValue is returned when a field is well-typed but out of range.
var ErrInvalidValue = errors.New("invalid field value")

// ErrContractViolation marks a rejection that must stop the topic's upstream
// connection permanently instead of dropping a single frame.
var ErrContractViolation = errors.New("contract violation")

// FieldError describes why a record was rejected.
type FieldError struct {
	// Field is the dotted path of the offending field, e.g. "pose.position.x".
	Field string

	// Err is one of the sentinel errors of this package.
	Err error

	// Detail is optional extra context for logs.
	Detail string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Field, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the sentinel error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsContractViolation reports whether err must be treated as fatal.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// within prefixes the field path of a FieldError with the enclosing field.
func within(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{Field: prefix + "." + fe.Field, Err: fe.Err, Detail: fe.Detail}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
