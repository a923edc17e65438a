// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"time"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/registry"
)

type healthData struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Generation string    `json:"generation"`
	LoadedAt   time.Time `json:"loadedAt"`
}

// Healthz reports whether catalogs have been loaded.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Cache-Control", "no-store")

	generation := h.Registry.Generation()
	if generation == "" {
		return &HTTPError{StatusCode: http.StatusServiceUnavailable, Err: registry.ErrNotLoaded}
	}

	return writeJSON(w, http.StatusOK, healthData{
		Status:     "ok",
		Version:    config.BuildVersion,
		Generation: generation,
		LoadedAt:   h.Registry.LoadedAt(),
	})
}
