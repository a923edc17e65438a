// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package convert

import (
	"crypto/sha1"
	"fmt"
	"io"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"codeberg.org/tscat/tscat/catalog"
	cplural "codeberg.org/tscat/tscat/catalog/plural"
)

// idSeparator joins the parts of a go-i18n message ID. It is the same
// separator gettext uses between msgctxt and msgid.
const idSeparator = "\x04"

// MessageID returns the go-i18n message ID of a catalog key.
func MessageID(context, source, disambiguation string) string {
	id := context + idSeparator + source
	if disambiguation != "" {
		id += idSeparator + disambiguation
	}

	return id
}

// Messages converts c to go-i18n messages.
//
// Every message a lookup can reach is exported with a source hash, so that the
// file records which keys exist. Only messages a catalog lookup answers with
// carry translations; numerus forms are assigned to the CLDR categories of the
// catalog's plural rule and are left out when the rule has no known categories.
func Messages(c *catalog.Catalog) []*i18n.Message {
	cats := cplural.Categories(c.Rule())
	seen := make(map[string]struct{})

	var out []*i18n.Message

	for ctx, m := range c.All() {
		if !indexed(m) {
			continue
		}

		id := MessageID(ctx, m.Source, m.Comment)
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}

		msg := &i18n.Message{
			ID:          id,
			Description: m.ExtraComment,
			Hash:        fmt.Sprintf("sha1-%x", sha1.Sum([]byte(m.Source))),
		}

		out = append(out, msg)

		switch {
		case !exportable(c, ctx, m):
		case !m.Numerus:
			msg.Other = m.Translation
		case len(cats) == len(m.NumerusForms):
			for i, form := range m.NumerusForms {
				setForm(msg, cats[i], form)
			}
		}
	}

	return out
}

func setForm(msg *i18n.Message, f plural.Form, text string) {
	switch f {
	case plural.Zero:
		msg.Zero = text
	case plural.One:
		msg.One = text
	case plural.Two:
		msg.Two = text
	case plural.Few:
		msg.Few = text
	case plural.Many:
		msg.Many = text
	default:
		msg.Other = text
	}
}

// tomlMessage is the go-i18n message file layout of one message.
type tomlMessage struct {
	Description string `toml:"description,omitempty"`
	Hash        string `toml:"hash,omitempty"`
	Zero        string `toml:"zero,omitempty"`
	One         string `toml:"one,omitempty"`
	Two         string `toml:"two,omitempty"`
	Few         string `toml:"few,omitempty"`
	Many        string `toml:"many,omitempty"`
	Other       string `toml:"other,omitempty"`
}

// WriteTOML writes the Messages of c as a go-i18n message file.
func WriteTOML(w io.Writer, c *catalog.Catalog) error {
	doc := make(map[string]tomlMessage)

	for _, m := range Messages(c) {
		doc[m.ID] = tomlMessage{
			Description: m.Description,
			Hash:        m.Hash,
			Zero:        m.Zero,
			One:         m.One,
			Two:         m.Two,
			Few:         m.Few,
			Many:        m.Many,
			Other:       m.Other,
		}
	}

	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("convert: write toml: %w", err)
	}

	return nil
}

// BundleTranslator resolves catalog keys against a go-i18n message file
// written by WriteTOML. Keys resolve as in a catalog using
// catalog.AmbiguityReject.
type BundleTranslator struct {
	localizer *i18n.Localizer
	keys      keyIndex
	printer   *message.Printer
}

var _ catalog.Translator = (*BundleTranslator)(nil)

// NewBundleTranslator loads a TOML message file for tag.
func NewBundleTranslator(tag language.Tag, data []byte) (*BundleTranslator, error) {
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if _, err := bundle.ParseMessageFileBytes(data, "active."+tag.String()+".toml"); err != nil {
		return nil, fmt.Errorf("convert: parse go-i18n messages: %w", err)
	}

	var doc map[string]tomlMessage
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("convert: parse go-i18n messages: %w", err)
	}

	keys := make(keyIndex)

	for id := range doc {
		parts := strings.SplitN(id, idSeparator, 3)
		if len(parts) < 2 {
			continue
		}

		disambiguation := ""
		if len(parts) == 3 {
			disambiguation = parts[2]
		}

		keys.add(parts[0], parts[1], disambiguation)
	}

	return &BundleTranslator{
		localizer: i18n.NewLocalizer(bundle, tag.String()),
		keys:      keys,
		printer:   message.NewPrinter(tag),
	}, nil
}

// Lookup returns the translation of source, or source itself. For a numerus
// message the form for a count of one is returned.
func (t *BundleTranslator) Lookup(context, source, disambiguation string) string {
	if s, ok := t.localize(context, source, disambiguation, 1); ok {
		return s
	}

	return source
}

// LookupPlural returns the plural form selected for n with %n and %Ln replaced.
func (t *BundleTranslator) LookupPlural(context, source, disambiguation string, n int) string {
	text := source

	if s, ok := t.localize(context, source, disambiguation, n); ok {
		text = s
	}

	return substituteCount(t.printer, text, n)
}

// localize renders the message the key resolves to. Messages without plural
// forms only carry "other", so they are also tried without a count.
func (t *BundleTranslator) localize(context, source, disambiguation string, n int) (string, bool) {
	d, ok := t.keys.resolve(context, source, disambiguation)
	if !ok {
		return "", false
	}

	id := MessageID(context, source, d)

	for _, cfg := range []*i18n.LocalizeConfig{
		{MessageID: id, PluralCount: n},
		{MessageID: id},
	} {
		if s, err := t.localizer.Localize(cfg); err == nil && s != "" {
			return s, true
		}
	}

	return "", false
}
