// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package convert

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/catalog/plural"
)

// DisambiguationSeparator joins a context and a disambiguation in msgctxt.
const DisambiguationSeparator = "|"

// POContext returns the msgctxt used for a message.
func POContext(context, disambiguation string) string {
	if disambiguation == "" {
		return context
	}

	return context + DisambiguationSeparator + disambiguation
}

// WritePO writes c as a gettext .po file.
//
// Messages a catalog lookup would not answer with are marked fuzzy: unfinished
// ones, broken numerus messages and later duplicates. Vanished and obsolete
// ones are written as obsolete (#~) entries. Numerus messages repeat their
// source as msgid_plural since TS files carry a single source text.
func WritePO(w io.Writer, c *catalog.Catalog) error {
	bw := bufio.NewWriter(w)

	rule := c.Rule()

	fmt.Fprintln(bw, `msgid ""`)
	fmt.Fprintln(bw, `msgstr ""`)
	fmt.Fprintf(bw, "\"Language: %s\\n\"\n", c.Language)
	fmt.Fprintln(bw, `"MIME-Version: 1.0\n"`)
	fmt.Fprintln(bw, `"Content-Type: text/plain; charset=UTF-8\n"`)
	fmt.Fprintln(bw, `"Content-Transfer-Encoding: 8bit\n"`)

	if expr := plural.Expression(rule); expr != "" {
		fmt.Fprintf(bw, "\"Plural-Forms: nplurals=%d; plural=%s;\\n\"\n", rule.Forms(), expr)
	}

	if c.SourceLanguage != "" {
		fmt.Fprintf(bw, "\"X-Source-Language: %s\\n\"\n", c.SourceLanguage)
	}

	seen := make(map[string]struct{})

	for ctx, m := range c.All() {
		fuzzy := false

		if indexed(m) {
			key := POContext(ctx, m.Comment) + "\x04" + m.Source

			_, dup := seen[key]
			seen[key] = struct{}{}

			fuzzy = dup || !exportable(c, ctx, m)
		}

		bw.WriteString("\n")
		writePOEntry(bw, ctx, m, rule.Forms(), fuzzy)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("convert: write po: %w", err)
	}

	return nil
}

func writePOEntry(bw *bufio.Writer, ctx string, m *catalog.Message, forms int, fuzzy bool) {
	prefix := ""
	if !indexed(m) {
		prefix = "#~ "
	}

	if m.TranslatorComment != "" {
		for line := range strings.SplitSeq(m.TranslatorComment, "\n") {
			fmt.Fprintf(bw, "# %s\n", line)
		}
	}

	if m.ExtraComment != "" {
		for line := range strings.SplitSeq(m.ExtraComment, "\n") {
			fmt.Fprintf(bw, "#. %s\n", line)
		}
	}

	for _, loc := range m.Locations {
		if loc.Line > 0 {
			fmt.Fprintf(bw, "#: %s:%d\n", loc.File, loc.Line)
		} else {
			fmt.Fprintf(bw, "#: %s\n", loc.File)
		}
	}

	if fuzzy {
		fmt.Fprintln(bw, "#, fuzzy")
	}

	fmt.Fprintf(bw, "%smsgctxt %s\n", prefix, quote(POContext(ctx, m.Comment)))
	fmt.Fprintf(bw, "%smsgid %s\n", prefix, quote(m.Source))

	if !m.Numerus {
		fmt.Fprintf(bw, "%smsgstr %s\n", prefix, quote(m.Translation))

		return
	}

	fmt.Fprintf(bw, "%smsgid_plural %s\n", prefix, quote(m.Source))

	for i := range max(forms, len(m.NumerusForms)) {
		text := ""
		if i < len(m.NumerusForms) {
			text = m.NumerusForms[i]
		}

		fmt.Fprintf(bw, "%smsgstr[%d] %s\n", prefix, i, quote(text))
	}
}

var poEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + poEscaper.Replace(s) + `"`
}

// PoTranslator resolves catalog keys against a .po file written by WritePO.
//
// Like msgfmt it ignores fuzzy entries. Keys resolve as in a catalog using
// catalog.AmbiguityReject: a lookup without disambiguation of a source that
// has several entries in its context returns the source.
type PoTranslator struct {
	po      *gotext.Po
	keys    keyIndex
	printer *message.Printer
}

var _ catalog.Translator = (*PoTranslator)(nil)

// NewPoTranslator parses a .po file. The tag selects the number format used
// for %Ln.
func NewPoTranslator(tag language.Tag, data []byte) *PoTranslator {
	all := gotext.NewPo()
	all.Parse(data)

	keys := make(keyIndex)

	for msgctxt, entries := range all.GetDomain().GetCtxTranslations() {
		context, disambiguation, _ := strings.Cut(msgctxt, DisambiguationSeparator)

		for source := range entries {
			keys.add(context, source, disambiguation)
		}
	}

	po := gotext.NewPo()
	po.Parse(withoutFuzzy(data))

	return &PoTranslator{po: po, keys: keys, printer: message.NewPrinter(tag)}
}

// Lookup returns the translation of source, or source itself.
func (t *PoTranslator) Lookup(context, source, disambiguation string) string {
	if ctx, ok := t.msgctxt(context, source, disambiguation); ok && t.po.IsTranslatedC(source, ctx) {
		return t.po.GetC(source, ctx)
	}

	return source
}

// LookupPlural returns the plural form selected for n with %n and %Ln replaced.
func (t *PoTranslator) LookupPlural(context, source, disambiguation string, n int) string {
	text := source

	if ctx, ok := t.msgctxt(context, source, disambiguation); ok {
		switch {
		case t.po.IsTranslatedNC(source, n, ctx):
			text = t.po.GetNC(source, source, n, ctx)
		case t.po.IsTranslatedC(source, ctx):
			// Entries without plural forms only carry msgstr.
			text = t.po.GetC(source, ctx)
		}
	}

	return substituteCount(t.printer, text, n)
}

func (t *PoTranslator) msgctxt(context, source, disambiguation string) (string, bool) {
	d, ok := t.keys.resolve(context, source, disambiguation)
	if !ok {
		return "", false
	}

	return POContext(context, d), true
}

// withoutFuzzy drops the fuzzy entries of a .po file. The first entry is the
// header and is always kept.
func withoutFuzzy(data []byte) []byte {
	var b strings.Builder

	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	first := true

	for entry := range strings.SplitSeq(text, "\n\n") {
		if !first && isFuzzy(entry) {
			continue
		}

		first = false

		b.WriteString(entry)
		b.WriteString("\n\n")
	}

	return []byte(b.String())
}

func isFuzzy(entry string) bool {
	for line := range strings.SplitSeq(entry, "\n") {
		flags, ok := strings.CutPrefix(strings.TrimSpace(line), "#,")
		if !ok {
			continue
		}

		for flag := range strings.SplitSeq(flags, ",") {
			if strings.TrimSpace(flag) == "fuzzy" {
				return true
			}
		}
	}

	return false
}

// substituteCount replaces %Ln with n formatted by p and %n with n.
func substituteCount(p *message.Printer, s string, n int) string {
	if !strings.Contains(s, "%") {
		return s
	}

	if strings.Contains(s, "%Ln") {
		s = strings.ReplaceAll(s, "%Ln", p.Sprintf("%d", n))
	}

	return strings.ReplaceAll(s, "%n", strconv.Itoa(n))
}
