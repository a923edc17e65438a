// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import "slices"

type mergeKey struct {
	context, source, comment string
}

// Merge updates existing against template, the freshly extracted set of
// messages, the way lupdate does:
//
//   - messages present in both keep their translation; vanished or obsolete
//     ones come back as unfinished
//   - messages only in template are added as unfinished
//   - messages only in existing become vanished, or are dropped when they
//     were never translated
//
// Locations, extra comments and ids are taken from template. The result uses
// the language, options and plural rule of existing.
func Merge(existing, template *Catalog) (*Catalog, error) {
	old := make(map[mergeKey]*Message)

	for ctxName, m := range existing.All() {
		k := mergeKey{ctxName, m.Source, m.Comment}
		if _, dup := old[k]; !dup {
			old[k] = m
		}
	}

	used := make(map[*Message]bool, len(old))
	forms := existing.rule.Forms()

	var (
		contexts = make([]*Context, 0, len(template.Contexts))
		byName   = make(map[string]*Context, len(template.Contexts))
	)

	for _, tctx := range template.Contexts {
		ctx := &Context{Name: tctx.Name, Messages: make([]*Message, 0, len(tctx.Messages))}
		contexts = append(contexts, ctx)
		byName[ctx.Name] = ctx

		for _, tm := range tctx.Messages {
			if tm.Status == Vanished || tm.Status == Obsolete {
				continue
			}

			m := &Message{
				ID:           tm.ID,
				Source:       tm.Source,
				Comment:      tm.Comment,
				ExtraComment: tm.ExtraComment,
				Locations:    slices.Clone(tm.Locations),
				Numerus:      tm.Numerus,
				Status:       Unfinished,
			}

			prev := old[mergeKey{tctx.Name, tm.Source, tm.Comment}]
			if prev != nil && !used[prev] && prev.Numerus == tm.Numerus {
				used[prev] = true

				m.OldSource = prev.OldSource
				m.OldComment = prev.OldComment
				m.TranslatorComment = prev.TranslatorComment
				m.Translation = prev.Translation
				m.Variants = slices.Clone(prev.Variants)
				m.NumerusForms = slices.Clone(prev.NumerusForms)

				if prev.Status == Finished || prev.Status == Unfinished {
					m.Status = prev.Status
				}
			} else if m.Numerus {
				m.NumerusForms = make([]string, forms)
			}

			ctx.Messages = append(ctx.Messages, m)
		}
	}

	for ctxName, prev := range existing.All() {
		if used[prev] || !hasText(prev) {
			continue
		}

		ctx := byName[ctxName]
		if ctx == nil {
			ctx = &Context{Name: ctxName}
			contexts = append(contexts, ctx)
			byName[ctxName] = ctx
		}

		m := *prev
		m.Locations = nil
		m.Variants = slices.Clone(prev.Variants)
		m.NumerusForms = slices.Clone(prev.NumerusForms)

		if m.Status != Obsolete {
			m.Status = Vanished
		}

		ctx.Messages = append(ctx.Messages, &m)
	}

	version := existing.Version
	if version == "" {
		version = DefaultVersion
	}

	return build(version, existing.Language, existing.SourceLanguage, contexts, existing.opts)
}

// hasText reports whether any translation text was ever entered for m.
func hasText(m *Message) bool {
	if m.Translation != "" {
		return true
	}

	return slices.ContainsFunc(m.NumerusForms, func(f string) bool { return f != "" })
}
