// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lint checks finished translations for the mistakes Qt Linguist warns
about: lost place markers, broken markup, mismatched ending punctuation,
surrounding whitespace and keyboard accelerators.
*/
package lint

import (
	"fmt"
	"strings"

	"codeberg.org/tscat/tscat/catalog"
)

// Finding codes.
const (
	CodePlaceMarkers  = "place_markers"
	CodeNumerusMarker = "numerus_marker"
	CodeMarkup        = "markup"
	CodePunctuation   = "punctuation"
	CodeWhitespace    = "whitespace"
	CodeAccelerator   = "accelerator"
)

// Finding is one problem in one translated text.
type Finding struct {
	Code           string `json:"code"`
	Context        string `json:"context"`
	Source         string `json:"source"`
	Disambiguation string `json:"disambiguation,omitempty"`

	// Form is the numerus form or length variant the finding applies to.
	Form int `json:"form"`

	Message string `json:"message"`
}

func (f Finding) String() string {
	key := f.Context + ": " + fmt.Sprintf("%q", f.Source)
	if f.Disambiguation != "" {
		key += " (" + f.Disambiguation + ")"
	}

	return fmt.Sprintf("%s: %s [form %d]: %s", f.Code, key, f.Form, f.Message)
}

// Findings is a collection of findings that implements error.
type Findings []Finding

// Error summarizes the first few findings.
func (fs Findings) Error() string {
	if len(fs) == 0 {
		return ""
	}

	const maxShown = 3

	b := &strings.Builder{}

	for i, f := range fs[:min(len(fs), maxShown)] {
		if i > 0 {
			b.WriteString("; ")
		}

		fmt.Fprintf(b, "%s at %s/%s", f.Code, f.Context, f.Source)
	}

	if len(fs) > maxShown {
		fmt.Fprintf(b, "; ... (total %d)", len(fs))
	}

	return b.String()
}

// check inspects one translated text of a message with the given source.
type check func(source, translation string, numerus bool) (code, message string, ok bool)

var checks = []check{
	checkPlaceMarkers,
	checkNumerusMarker,
	checkMarkup,
	checkPunctuation,
	checkWhitespace,
	checkAccelerator,
}

// Check runs every check over the finished messages of c. Empty texts are
// skipped, they fall back to the source at lookup time.
func Check(c *catalog.Catalog) Findings {
	var out Findings

	for ctx, m := range c.All() {
		if m.Status != catalog.Finished {
			continue
		}

		for i, text := range texts(m) {
			if text == "" {
				continue
			}

			for _, fn := range checks {
				code, msg, ok := fn(m.Source, text, m.Numerus)
				if ok {
					continue
				}

				out = append(out, Finding{
					Code:           code,
					Context:        ctx,
					Source:         m.Source,
					Disambiguation: m.Comment,
					Form:           i,
					Message:        msg,
				})
			}
		}
	}

	return out
}

// texts returns the numerus forms, the length variants or the single
// translation of m.
func texts(m *catalog.Message) []string {
	switch {
	case m.Numerus:
		return m.NumerusForms
	case len(m.Variants) > 1:
		return m.Variants
	}

	return []string{m.Translation}
}
