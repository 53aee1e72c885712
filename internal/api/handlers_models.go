// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/telebridge/internal/modelcache"
)

// Model handles GET /api/v1/models/{name}: the asset is verified against
// its published SHA-256 before a single byte is served.
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.models == nil {
		rw.ServiceUnavailable("Model serving is not configured")
		return
	}

	name := chi.URLParam(r, "name")
	asset, err := h.models.Fetch(r.Context(), name)
	switch {
	case err == nil:
	case errors.Is(err, modelcache.ErrInvalidName):
		rw.BadRequest("Invalid model name")
		return
	case errors.Is(err, modelcache.ErrNotFound):
		rw.NotFound("Unknown model: " + name)
		return
	case errors.Is(err, modelcache.ErrIntegrity):
		rw.ExternalServiceError(ErrCodeIntegrityFailed, "model store", err)
		return
	case errors.Is(err, modelcache.ErrUnavailable):
		rw.ServiceUnavailable("Model store unavailable")
		return
	default:
		rw.ExternalServiceError(ErrCodeExternalServiceFail, "model store", err)
		return
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		rw.InternalError("Failed to open model asset", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("ETag", strconv.Quote(asset.SHA256))
	w.Header().Set("X-Model-SHA256", asset.SHA256)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, asset.Name, time.Time{}, f)
}
