// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"fmt"
	"net/http"
	"strings"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/core/untrusted"
	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/utils"
)

type langData struct {
	Lang    string `json:"lang"`
	Matched string `json:"matched,omitempty"`
}

// SetLanguage stores the lang query parameter in the language cookie, which
// later requests use when they carry no lang parameter of their own. An
// empty value or "auto" clears the cookie.
func (h *Handlers) SetLanguage(w http.ResponseWriter, r *http.Request) error {
	lang := utils.GetQueryParam(r, registry.LangParam)

	if lang == "" || strings.EqualFold(lang, "auto") {
		untrusted.ClearCookie(w, r, untrusted.LangCookie)

		return writeJSON(w, http.StatusOK, langData{})
	}

	tag, err := catalog.ParseLanguage(lang)
	if err != nil {
		return badRequest(fmt.Errorf("%w: %w", errInvalidLanguageTag, err))
	}

	untrusted.SetCookie(w, r, untrusted.LangCookie, tag.String())

	return writeJSON(w, http.StatusOK, langData{
		Lang:    tag.String(),
		Matched: h.Registry.Match(tag).String(),
	})
}
