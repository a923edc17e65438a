// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/request_context"
)

var errNothingToFormat = errors.New("template or source is required")

type formatRequest struct {
	// Template is formatted as is. When empty, the message identified by
	// Context, Source, Disambiguation and N is resolved and formatted instead.
	Template string `json:"template"`

	Context        string `json:"context"`
	Source         string `json:"source"`
	Disambiguation string `json:"disambiguation"`
	N              *int   `json:"n"`

	// Args replace the %1 to %99 markers. JSON numbers arrive as float64.
	Args []any `json:"args"`
}

type formatData struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// Format fills in the place markers of a template, or of a resolved message,
// using the number formatting of the request's locale.
func (h *Handlers) Format(w http.ResponseWriter, r *http.Request) error {
	var req formatRequest
	if err := readJSON(w, r, &req); err != nil {
		return err
	}

	c := h.Registry.For(r.Context())

	if req.Template != "" {
		return writeJSON(w, http.StatusOK, formatData{
			Text:   c.Format(req.Template, req.Args...),
			Locale: request_context.FromRequest(r).T.String(),
		})
	}

	if req.Source == "" {
		return badRequest(errNothingToFormat)
	}

	key := registry.Key{Context: req.Context, Source: req.Source, Disambiguation: req.Disambiguation}
	if req.N != nil {
		key.Plural, key.N = true, *req.N
	}

	res := h.Registry.Resolve(r.Context(), key)
	res.Text = c.Format(res.Text, req.Args...)

	return writeJSON(w, http.StatusOK, newTranslateData(res))
}
