// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Enabled(t *testing.T) {
	tests := []struct {
		name         string
		zerologLevel zerolog.Level
		slogLevel    slog.Level
		want         bool
	}{
		{"debug logger enables debug", zerolog.DebugLevel, slog.LevelDebug, true},
		{"info logger disables debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger enables warn", zerolog.InfoLevel, slog.LevelWarn, true},
		{"error logger disables info", zerolog.ErrorLevel, slog.LevelInfo, false},
	}

	SetLevel(zerolog.TraceLevel)
	defer SetLevel(zerolog.InfoLevel)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSlogHandlerWithLogger(zerolog.New(&bytes.Buffer{}).Level(tt.zerologLevel))
			if got := h.Enabled(context.Background(), tt.slogLevel); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.slogLevel, got, tt.want)
			}
		})
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	slogger.Warn("service restarted",
		"service", "hub-layer",
		"restarts", 3,
		"backoff", 2*time.Second,
		"healthy", false,
		"error", errors.New("terminated"),
	)

	output := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"service":"hub-layer"`,
		`"restarts":3`,
		`"healthy":false`,
		`"error":"terminated"`,
		"service restarted",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf))).
		With("supervisor", "telebridge").
		WithGroup("event")

	slogger.Info("stopped", "name", "api-layer")

	output := buf.String()
	if !strings.Contains(output, `"event.supervisor":"telebridge"`) && !strings.Contains(output, `"supervisor":"telebridge"`) {
		t.Errorf("expected supervisor attribute in output: %s", output)
	}
	if !strings.Contains(output, `"event.name":"api-layer"`) {
		t.Errorf("expected grouped key in output: %s", output)
	}
}

func TestSlogHandler_WithGroup_Empty(t *testing.T) {
	h := NewSlogHandler()
	if h.WithGroup("") != h {
		t.Error("expected WithGroup(\"\") to return the same handler")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
