// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package convert

import (
	"errors"
	"slices"

	"codeberg.org/tscat/tscat/catalog"
)

type sourceKey struct {
	context, source string
}

// keyIndex records the disambiguations an exported file carries for each
// (context, source) pair, translated or not. It resolves lookups the way
// catalog.Find does under catalog.AmbiguityReject.
type keyIndex map[sourceKey][]string

func (ix keyIndex) add(context, source, disambiguation string) {
	k := sourceKey{context: context, source: source}
	if !slices.Contains(ix[k], disambiguation) {
		ix[k] = append(ix[k], disambiguation)
	}
}

// resolve returns the disambiguation of the entry that answers a lookup. A
// disambiguation without an entry falls back to the entry without one; no
// disambiguation only resolves when the pair has a single entry.
func (ix keyIndex) resolve(context, source, disambiguation string) (string, bool) {
	ds := ix[sourceKey{context: context, source: source}]

	switch {
	case disambiguation != "" && slices.Contains(ds, disambiguation):
		return disambiguation, true
	case disambiguation != "" && slices.Contains(ds, ""):
		return "", true
	case disambiguation == "" && len(ds) == 1:
		return ds[0], true
	}

	return "", false
}

// exportable reports whether the bridges may carry the translation of m. It is
// false for messages a catalog lookup never answers with: unfinished, empty,
// broken and shadowed duplicates. The entry without disambiguation of an
// ambiguous key stays exportable since disambiguated lookups fall back to it.
func exportable(c *catalog.Catalog, ctx string, m *catalog.Message) bool {
	if m.Status != catalog.Finished {
		return false
	}

	found, err := c.Find(ctx, m.Source, m.Comment)

	switch {
	case err == nil:
		return found == m
	case errors.Is(err, catalog.ErrAmbiguous):
		return complete(c, m)
	}

	return false
}

func complete(c *catalog.Catalog, m *catalog.Message) bool {
	if !m.Numerus {
		return m.Translation != ""
	}

	return len(m.NumerusForms) == c.Rule().Forms() && !slices.Contains(m.NumerusForms, "")
}

// indexed reports whether m takes part in lookups at all.
func indexed(m *catalog.Message) bool {
	return m.Status != catalog.Vanished && m.Status != catalog.Obsolete
}
