// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"fmt"
	"net/http"

	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/utils"
)

var errMissingSource = errors.New("source is required")

type translateData struct {
	Text       string `json:"text"`
	Locale     string `json:"locale"`
	Translated bool   `json:"translated"`
	Reason     string `json:"reason,omitempty"`
}

func newTranslateData(res registry.Resolution) translateData {
	return translateData{
		Text:       res.Text,
		Locale:     res.Locale.String(),
		Translated: res.Translated,
		Reason:     res.Reason(),
	}
}

// Translate resolves one message for the locale of the request.
//
// Query parameters are context, source, disambiguation and n. Passing n
// selects a numerus form and substitutes %n.
func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) error {
	key := registry.Key{
		Context:        utils.GetQueryParam(r, "context"),
		Source:         utils.GetQueryParam(r, "source"),
		Disambiguation: utils.GetQueryParam(r, "disambiguation"),
	}

	if key.Source == "" {
		return badRequest(errMissingSource)
	}

	n, ok, err := utils.GetIntQueryParam(r, "n")
	if err != nil {
		return badRequest(fmt.Errorf("invalid n: %w", err))
	}

	key.Plural, key.N = ok, n

	return writeJSON(w, http.StatusOK, newTranslateData(h.Registry.Resolve(r.Context(), key)))
}
