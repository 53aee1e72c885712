// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/telebridge/internal/telemetry"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// modelNamePattern accepts plain file names such as "robot_base.glb".
var modelNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error returns the human-readable message.
func (e FieldError) Error() string {
	return e.Message
}

// Error is returned by ValidateStruct and lists every failed rule.
type Error struct {
	Fields []FieldError
}

// Error joins the field messages.
func (ve *Error) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator with the custom tags registered:
//
//   - topic: one of the five telemetry topic names
//   - modelname: a plain file name without path separators or "..".
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		_ = validate.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
			return telemetry.IsTopic(fl.Field().String())
		})
		_ = validate.RegisterValidation("modelname", func(fl validator.FieldLevel) bool {
			return IsModelName(fl.Field().String())
		})
	})
	return validate
}

// IsModelName reports whether name is safe to use as a cache file name.
func IsModelName(name string) bool {
	return modelNamePattern.MatchString(name) && !strings.Contains(name, "..")
}

// ValidateStruct validates s and returns *Error on failure.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return out
}

// Var validates a single value against tag.
func Var(field string, value any, tag string) error {
	err := GetValidator().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s: %w", field, err)
	}
	fe := verrs[0]
	return &Error{Fields: []FieldError{{
		Field:   field,
		Tag:     fe.Tag(),
		Param:   fe.Param(),
		Message: translate(field, fe),
	}}}
}

var messageTemplates = map[string]string{
	"required":  "%s is required",
	"url":       "%s must be a valid URL",
	"hostname":  "%s must be a valid host name",
	"ip":        "%s must be a valid IP address",
	"topic":     "%s must be one of: " + strings.Join(telemetry.Topics, ", "),
	"modelname": "%s must be a plain file name",
}

var paramTemplates = map[string]string{
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"gt":       "%s must be greater than %s",
	"lt":       "%s must be less than %s",
	"gtefield": "%s must be greater than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	return translate(fe.Namespace(), fe)
}

func translate(field string, fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()

	if tpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := paramTemplates[tag]; ok {
		return fmt.Sprintf(tpl, field, param)
	}

	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
