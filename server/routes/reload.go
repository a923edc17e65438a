// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"time"
)

type reloadData struct {
	Generation string    `json:"generation"`
	LoadedAt   time.Time `json:"loadedAt"`
	Locales    int       `json:"locales"`
}

// Reload rescans the catalog directory. On failure the previously loaded
// catalogs stay in service.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) error {
	if err := h.Registry.Reload(r.Context()); err != nil {
		return err
	}

	if h.Exports != nil {
		h.Exports.Purge()
	}

	return writeJSON(w, http.StatusOK, reloadData{
		Generation: h.Registry.Generation(),
		LoadedAt:   h.Registry.LoadedAt(),
		Locales:    len(h.Registry.Languages()),
	})
}
