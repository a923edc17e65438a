// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"errors"
	"strconv"
	"strings"
)

// Translator resolves source strings to translated text.
//
// Implementations never fail: when no translation is available they return
// the source text, with %n substituted for plural lookups.
type Translator interface {
	Lookup(context, source, disambiguation string) string
	LookupPlural(context, source, disambiguation string, n int) string
}

var _ Translator = (*Catalog)(nil)

// Find returns the message for the (context, source, disambiguation) key.
//
// An empty disambiguation means none was given. When a disambiguation is given
// but no message carries it, the message without disambiguation is used, if any.
// Without a disambiguation, a key shared by several disambiguations is
// ErrAmbiguous under AmbiguityReject; a key with exactly one message resolves to
// it whatever its disambiguation.
//
// Find returns the message together with ErrMissingKey when it exists but has no
// usable translation (unfinished or empty), and with an error wrapping
// ErrPluralFormCountMismatch when its numerus forms do not fit the plural rule.
func (c *Catalog) Find(context, source, disambiguation string) (*Message, error) {
	e := c.index[lookupKey{context: context, source: source}]
	if e == nil {
		return nil, ErrMissingKey
	}

	var m *Message

	switch {
	case disambiguation != "":
		m = e.byComment[disambiguation]
		if m == nil {
			m = e.byComment[""]
		}
	case len(e.order) == 1 || c.opts.policy == AmbiguityFirst:
		m = e.byComment[e.order[0]]
	default:
		return nil, ErrAmbiguous
	}

	if m == nil {
		return nil, ErrMissingKey
	}

	if err := c.broken[m]; err != nil {
		return m, err
	}

	if !m.translated() {
		return m, ErrMissingKey
	}

	return m, nil
}

// Lookup returns the translation of source, or source itself when there is no
// usable translation. For a numerus message the first form is returned as is.
func (c *Catalog) Lookup(context, source, disambiguation string) string {
	m, err := c.Find(context, source, disambiguation)
	if err != nil {
		c.noteFailure(err, context, source)

		return source
	}

	if m.Numerus {
		return m.NumerusForms[0]
	}

	return m.Translation
}

// LookupPlural returns the numerus form selected for n with %n and %Ln replaced
// by n. Without a usable translation the source text is used instead.
func (c *Catalog) LookupPlural(context, source, disambiguation string, n int) string {
	text := source

	m, err := c.Find(context, source, disambiguation)
	if err == nil {
		if m.Numerus {
			text = m.NumerusForms[c.rule.Index(n)]
		} else {
			text = m.Translation
		}
	} else {
		c.noteFailure(err, context, source)
	}

	return c.substituteCount(text, n)
}

// LookupID returns the translation of the message with the given id. It returns
// the message source when the translation is unusable and id itself when no
// message carries it.
func (c *Catalog) LookupID(id string) string {
	m := c.byID[id]
	if m == nil {
		return id
	}

	if c.broken[m] != nil || !m.translated() {
		return m.Source
	}

	if m.Numerus {
		return m.NumerusForms[0]
	}

	return m.Translation
}

// Translated reports whether the key resolves to a usable translation.
func (c *Catalog) Translated(context, source, disambiguation string) bool {
	_, err := c.Find(context, source, disambiguation)

	return err == nil
}

// noteFailure logs ambiguous lookups once per key. Missing keys are not logged
// here; callers that want that (such as strict mode) do it themselves.
func (c *Catalog) noteFailure(err error, context, source string) {
	if !errors.Is(err, ErrAmbiguous) {
		return
	}

	id := context + "\x00" + source
	if _, loaded := c.ambiguousLogged.LoadOrStore(id, struct{}{}); !loaded {
		c.logger.Warn().
			Str("context", context).
			Str("source", source).
			Msg("Ambiguous lookup without disambiguation, using source text")
	}
}

// substituteCount replaces %n with n and %Ln with n formatted for the catalog language.
func (c *Catalog) substituteCount(s string, n int) string {
	if !strings.Contains(s, "%") {
		return s
	}

	if strings.Contains(s, "%Ln") {
		s = strings.ReplaceAll(s, "%Ln", c.printer.Sprintf("%d", n))
	}

	return strings.ReplaceAll(s, "%n", strconv.Itoa(n))
}
