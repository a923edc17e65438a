// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const indent = "    "

// Encode writes c as a TS document in the layout Qt tools produce.
//
// Locations are always written with absolute file names and line numbers.
// Loading the output again yields a catalog with the same lookup results.
func Encode(w io.Writer, c *Catalog) error {
	bw := bufio.NewWriter(w)

	version := c.Version
	if version == "" {
		version = DefaultVersion
	}

	bw.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE TS>\n")
	bw.WriteString(`<TS version="` + protectAttr(version) + `"`)

	if c.Language != "" {
		bw.WriteString(` language="` + protectAttr(c.Language) + `"`)
	}

	if c.SourceLanguage != "" {
		bw.WriteString(` sourcelanguage="` + protectAttr(c.SourceLanguage) + `"`)
	}

	bw.WriteString(">\n")

	for _, ctx := range c.Contexts {
		bw.WriteString("<context>\n")
		writeElement(bw, 1, "name", ctx.Name)

		for _, m := range ctx.Messages {
			encodeMessage(bw, m)
		}

		bw.WriteString("</context>\n")
	}

	bw.WriteString("</TS>\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}

	return nil
}

func encodeMessage(bw *bufio.Writer, m *Message) {
	bw.WriteString(indent + "<message")

	if m.ID != "" {
		bw.WriteString(` id="` + protectAttr(m.ID) + `"`)
	}

	if m.Numerus {
		bw.WriteString(` numerus="yes"`)
	}

	bw.WriteString(">\n")

	for _, loc := range m.Locations {
		bw.WriteString(indent + indent + `<location filename="` + protectAttr(loc.File) + `"`)

		if loc.Line > 0 {
			bw.WriteString(` line="` + strconv.Itoa(loc.Line) + `"`)
		}

		bw.WriteString("/>\n")
	}

	writeElement(bw, 2, "source", m.Source)

	if m.OldSource != "" {
		writeElement(bw, 2, "oldsource", m.OldSource)
	}

	if m.Comment != "" {
		writeElement(bw, 2, "comment", m.Comment)
	}

	if m.OldComment != "" {
		writeElement(bw, 2, "oldcomment", m.OldComment)
	}

	if m.ExtraComment != "" {
		writeElement(bw, 2, "extracomment", m.ExtraComment)
	}

	if m.TranslatorComment != "" {
		writeElement(bw, 2, "translatorcomment", m.TranslatorComment)
	}

	bw.WriteString(indent + indent + "<translation")

	if s := m.Status.String(); s != "" {
		bw.WriteString(` type="` + s + `"`)
	}

	switch {
	case m.Numerus:
		bw.WriteString(">\n")

		for _, f := range m.NumerusForms {
			writeElement(bw, 3, "numerusform", f)
		}

		bw.WriteString(indent + indent + "</translation>\n")
	case len(m.Variants) > 1:
		bw.WriteString(` variants="yes">` + "\n")

		for _, v := range m.Variants {
			writeElement(bw, 3, "lengthvariant", v)
		}

		bw.WriteString(indent + indent + "</translation>\n")
	default:
		bw.WriteString(">" + protect(m.Translation) + "</translation>\n")
	}

	bw.WriteString(indent + "</message>\n")
}

func writeElement(bw *bufio.Writer, depth int, name, text string) {
	bw.WriteString(strings.Repeat(indent, depth))
	bw.WriteString("<" + name + ">" + protect(text) + "</" + name + ">\n")
}

// protect escapes s for use as character data. Control characters XML 1.0
// cannot carry are written as <byte> elements, and '\r' as a character
// reference since parsers turn a literal one into '\n'.
func protect(s string) string {
	return escape(s, false)
}

// protectAttr escapes s for use as an attribute value, where parsers also
// turn literal '\n' and '\t' into spaces.
func protectAttr(s string) string {
	return escape(s, true)
}

func escape(s string, attr bool) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '\r':
			b.WriteString("&#xd;")
		case '\n', '\t':
			if attr {
				fmt.Fprintf(&b, "&#x%x;", r)
			} else {
				b.WriteRune(r)
			}
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `<byte value="x%x"/>`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}
