// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package registry

import (
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
)

// Locale summarises one supported locale.
type Locale struct {
	Tag   string         `json:"tag"             yaml:"tag"`
	File  string         `json:"file,omitempty"  yaml:"file,omitempty"`
	Base  bool           `json:"base,omitempty"  yaml:"base,omitempty"`
	Stats *catalog.Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// Languages returns the supported language tags, the base locale first and
// the others sorted by tag string. The returned slice is a copy and is safe
// to retain. Before Load only the base tag is returned.
func (r *Registry) Languages() []language.Tag {
	snap := r.current.Load()
	if snap == nil {
		return []language.Tag{r.baseTag}
	}

	out := make([]language.Tag, len(snap.tags))
	copy(out, snap.tags)

	return out
}

// Catalog returns the catalog loaded for exactly t, or nil. The base locale
// has no catalog unless a file declares it.
func (r *Registry) Catalog(t language.Tag) *catalog.Catalog {
	snap := r.current.Load()
	if snap == nil {
		return nil
	}

	if e := snap.locales[t]; e != nil {
		return e.catalog
	}

	return nil
}

// Locales summarises the supported locales in the order of Languages.
func (r *Registry) Locales() []Locale {
	snap := r.current.Load()
	if snap == nil {
		return []Locale{{Tag: r.baseTag.String(), Base: true}}
	}

	out := make([]Locale, 0, len(snap.tags))

	for _, t := range snap.tags {
		l := Locale{Tag: t.String(), Base: t == r.baseTag}

		if e := snap.locales[t]; e != nil {
			stats := e.catalog.Stats()

			l.File = e.file
			l.Stats = &stats
		}

		out = append(out, l)
	}

	return out
}
