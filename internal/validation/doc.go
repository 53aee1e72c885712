// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

// Package validation wraps go-playground/validator v10 with a shared
// instance, the custom tags used by this service and readable messages.
//
//	type request struct {
//	    Topic string `validate:"required,topic"`
//	    Model string `validate:"required,modelname"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    // err is *validation.Error
//	}
package validation
