// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"time"

	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/request_context"
)

type localesData struct {
	Base       string            `json:"base"`
	Matched    string            `json:"matched"`
	Generation string            `json:"generation"`
	LoadedAt   time.Time         `json:"loadedAt"`
	Locales    []registry.Locale `json:"locales"`
}

// Locales lists the supported locales and the one matched for the request.
func (h *Handlers) Locales(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, localesData{
		Base:       h.Registry.BaseTag().String(),
		Matched:    request_context.FromRequest(r).T.String(),
		Generation: h.Registry.Generation(),
		LoadedAt:   h.Registry.LoadedAt(),
		Locales:    h.Registry.Locales(),
	})
}
