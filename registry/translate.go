// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package registry

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
)

// Key identifies a message to resolve.
type Key struct {
	Context        string
	Source         string
	Disambiguation string

	// Plural selects a numerus form for N and substitutes %n.
	Plural bool
	N      int
}

// Resolution is the outcome of resolving a Key.
type Resolution struct {
	Text string

	// Locale is the supported locale the key was resolved in.
	Locale language.Tag

	// Translated is false when Text fell back to the source text.
	Translated bool

	// Err tells why the key was not translated, see catalog.Catalog.Find.
	Err error
}

// Tr translates source in context for the locale carried by ctx.
func (r *Registry) Tr(ctx context.Context, msgctx, source string) string {
	return r.Resolve(ctx, Key{Context: msgctx, Source: source}).Text
}

// TrD is Tr with a disambiguation, the <comment> of the message.
func (r *Registry) TrD(ctx context.Context, msgctx, source, disambiguation string) string {
	return r.Resolve(ctx, Key{Context: msgctx, Source: source, Disambiguation: disambiguation}).Text
}

// TrN translates the numerus message source for count n.
func (r *Registry) TrN(ctx context.Context, msgctx, source string, n int) string {
	return r.Resolve(ctx, Key{Context: msgctx, Source: source, Plural: true, N: n}).Text
}

// TrND is TrN with a disambiguation.
func (r *Registry) TrND(ctx context.Context, msgctx, source, disambiguation string, n int) string {
	return r.Resolve(ctx, Key{Context: msgctx, Source: source, Disambiguation: disambiguation, Plural: true, N: n}).Text
}

// For returns the catalog serving the locale carried by ctx. Locales without a
// catalog, the base locale among them, get an empty catalog that formats for
// the base locale.
func (r *Registry) For(ctx context.Context) *catalog.Catalog {
	if e := r.entry(r.TagFrom(ctx)); e != nil {
		return e.catalog
	}

	return r.fallback
}

// Resolve looks key up in the catalog of the locale carried by ctx.
//
// Keys of the base locale resolve to their source text and count as
// translated. In strict mode any other key that falls back to its source
// text is logged once and returned wrapped as "⟦...⟧".
func (r *Registry) Resolve(ctx context.Context, key Key) Resolution {
	res := Resolution{Locale: r.baseTag}
	c := r.fallback

	if snap := r.current.Load(); snap != nil {
		var e *entry

		res.Locale, e = snap.resolve(r.TagFrom(ctx))
		if e != nil {
			c = e.catalog
		}
	}

	if key.Plural {
		res.Text = c.LookupPlural(key.Context, key.Source, key.Disambiguation, key.N)
	} else {
		res.Text = c.Lookup(key.Context, key.Source, key.Disambiguation)
	}

	if c == r.fallback && res.Locale == r.baseTag {
		res.Translated = true

		return res
	}

	_, res.Err = c.Find(key.Context, key.Source, key.Disambiguation)
	res.Translated = res.Err == nil

	if !res.Translated && r.opts.StrictMissingKeys {
		r.logMissingOnce(res.Locale, key, res.Err)

		res.Text = "⟦" + res.Text + "⟧"
	}

	return res
}

func (r *Registry) entry(t language.Tag) *entry {
	snap := r.current.Load()
	if snap == nil {
		return nil
	}

	return snap.entryFor(t)
}

// logMissingOnce logs a missing translation warning once per locale and key.
func (r *Registry) logMissingOnce(locale language.Tag, key Key, err error) {
	id := strippedTagString(locale) + "\x00" + buildLogKey(key)
	if _, loaded := r.missingKeyOnce.LoadOrStore(id, struct{}{}); loaded {
		return
	}

	r.logger.Warn().
		Str("locale", locale.String()).
		Str("key", buildLogKey(key)).
		Str("reason", reason(err)).
		Msg("Missing translation")
}

// Reason names why the key was not translated: "missing", "ambiguous" or
// "broken". It is empty for translated keys.
func (res Resolution) Reason() string {
	if res.Translated {
		return ""
	}

	return reason(res.Err)
}

func reason(err error) string {
	switch {
	case errors.Is(err, catalog.ErrAmbiguous):
		return "ambiguous"
	case errors.Is(err, catalog.ErrPluralFormCountMismatch):
		return "broken"
	}

	return "missing"
}

// strippedTagString removes variants to form a stable key using base, script and region only.
func strippedTagString(tag language.Tag) string {
	b, s, reg := tag.Raw()
	stripped, _ := language.Compose(b, s, reg)

	return stripped.String()
}

// buildLogKey composes "context<EOT>source", followed by "|disambiguation"
// when one is given.
func buildLogKey(key Key) string {
	s := key.Context + "\x04" + key.Source
	if key.Disambiguation != "" {
		s += "|" + key.Disambiguation
	}

	return s
}
