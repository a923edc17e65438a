// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/tscat/tscat/lint"
)

type lintData struct {
	Locale   string        `json:"locale"`
	File     string        `json:"file"`
	Findings lint.Findings `json:"findings"`
	Issues   []string      `json:"issues"`
}

// Lint runs the translation checks over the catalog of the {lang} path
// variable and reports their findings along with the catalog's load issues.
func (h *Handlers) Lint(w http.ResponseWriter, r *http.Request) error {
	tag, c, err := h.catalogFor(r)
	if err != nil {
		return err
	}

	data := lintData{
		Locale:   tag.String(),
		File:     c.Name(),
		Findings: lint.Check(c),
		Issues:   make([]string, 0, len(c.Issues())),
	}

	for _, issue := range c.Issues() {
		data.Issues = append(data.Issues, issue.String())
	}

	if data.Findings == nil {
		data.Findings = lint.Findings{}
	}

	return writeJSON(w, http.StatusOK, data)
}
