// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// tsDocument mirrors the root <TS> element.
type tsDocument struct {
	XMLName        xml.Name    `xml:"TS"`
	Version        string      `xml:"version,attr"`
	Language       string      `xml:"language,attr"`
	SourceLanguage string      `xml:"sourcelanguage,attr"`
	Contexts       []tsContext `xml:"context"`
}

type tsContext struct {
	Name     tsText      `xml:"name"`
	Messages []tsMessage `xml:"message"`
}

type tsMessage struct {
	ID                string        `xml:"id,attr"`
	Numerus           string        `xml:"numerus,attr"`
	Locations         []tsLocation  `xml:"location"`
	Source            tsText        `xml:"source"`
	OldSource         tsText        `xml:"oldsource"`
	Comment           tsText        `xml:"comment"`
	OldComment        tsText        `xml:"oldcomment"`
	ExtraComment      tsText        `xml:"extracomment"`
	TranslatorComment tsText        `xml:"translatorcomment"`
	Translation       tsTranslation `xml:"translation"`
}

type tsLocation struct {
	Filename *string `xml:"filename,attr"`
	Line     string  `xml:"line,attr"`
}

// tsText is character data that may contain <byte value="x1B"/> escapes for
// characters XML cannot carry, and <lengthvariant> children.
type tsText struct {
	Text     string
	Variants []string
	present  bool
}

func (t *tsText) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	t.present = true

	var b strings.Builder

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch tok := tok.(type) {
		case xml.CharData:
			b.Write(tok)
		case xml.StartElement:
			switch tok.Name.Local {
			case "byte":
				r, err := byteValue(tok)
				if err != nil {
					return err
				}

				b.WriteRune(r)

				if err := d.Skip(); err != nil {
					return err
				}
			case "lengthvariant":
				var v tsText
				if err := d.DecodeElement(&v, &tok); err != nil {
					return err
				}

				t.Variants = append(t.Variants, v.Text)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			t.Text = b.String()
			if len(t.Variants) > 0 {
				// Whitespace between variants is not part of the text.
				t.Text = t.Variants[0]
			}

			return nil
		}
	}
}

// byteValue decodes the value attribute of a <byte> element: "x1B" is
// hexadecimal, anything else decimal.
func byteValue(el xml.StartElement) (rune, error) {
	for _, a := range el.Attr {
		if a.Name.Local != "value" {
			continue
		}

		v, base := a.Value, 10
		if strings.HasPrefix(v, "x") || strings.HasPrefix(v, "X") {
			v, base = v[1:], 16
		}

		n, err := strconv.ParseUint(v, base, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: bad byte value %q", ErrMalformedDocument, a.Value)
		}

		return rune(n), nil
	}

	return 0, fmt.Errorf("%w: byte element without value", ErrMalformedDocument)
}

// tsTranslation is the <translation> element: plain text, length variants or
// numerus forms.
type tsTranslation struct {
	Type    string
	Text    tsText
	Numerus []tsText
}

func (t *tsTranslation) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local == "type" {
			t.Type = a.Value
		}
	}

	// The plain text path shares tsText's handling of <byte> and <lengthvariant>,
	// but <numerusform> children have to be picked out first.
	var (
		b        strings.Builder
		variants []string
	)

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch tok := tok.(type) {
		case xml.CharData:
			b.Write(tok)
		case xml.StartElement:
			switch tok.Name.Local {
			case "numerusform":
				var f tsText
				if err := d.DecodeElement(&f, &tok); err != nil {
					return err
				}

				t.Numerus = append(t.Numerus, f)
			case "lengthvariant":
				var v tsText
				if err := d.DecodeElement(&v, &tok); err != nil {
					return err
				}

				variants = append(variants, v.Text)
			case "byte":
				r, err := byteValue(tok)
				if err != nil {
					return err
				}

				b.WriteRune(r)

				if err := d.Skip(); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			t.Text = tsText{Text: b.String(), Variants: variants, present: true}
			if len(variants) > 0 {
				t.Text.Text = variants[0]
			}

			return nil
		}
	}
}

// Load parses a TS document.
//
// Structural problems are reported as a *ParseError wrapping
// ErrMalformedDocument; an unknown schema version as a *ParseError wrapping
// ErrUnsupportedSchemaVersion. Data quality problems such as duplicate keys do
// not fail the load; they are logged and available from Catalog.Issues.
func Load(r io.Reader, opts ...Option) (*Catalog, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	dec := xml.NewDecoder(r)

	var doc tsDocument
	if err := dec.Decode(&doc); err != nil {
		line, col := dec.InputPos()

		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col = syntaxErr.Line, 0
		}

		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}

		detail := strings.TrimPrefix(err.Error(), ErrMalformedDocument.Error()+": ")

		return nil, &ParseError{File: o.name, Line: line, Column: col, Err: ErrMalformedDocument, Detail: detail}
	}

	if err := checkTrailer(dec); err != nil {
		line, col := dec.InputPos()

		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col = syntaxErr.Line, 0
		}

		return nil, &ParseError{File: o.name, Line: line, Column: col, Err: ErrMalformedDocument, Detail: err.Error()}
	}

	contexts, err := doc.contexts()
	if err != nil {
		return nil, &ParseError{
			File:   o.name,
			Err:    ErrMalformedDocument,
			Detail: strings.TrimPrefix(err.Error(), ErrMalformedDocument.Error()+": "),
		}
	}

	version := doc.Version
	if version == "" {
		version = DefaultVersion
	}

	return build(version, doc.Language, doc.SourceLanguage, contexts, o)
}

// checkTrailer reads dec to the end of input after the root element. Only
// whitespace, comments and processing instructions may follow it.
func checkTrailer(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("element <%s> after the root element", tok.Name.Local)
		case xml.CharData:
			if len(strings.TrimSpace(string(tok))) > 0 {
				return errors.New("text after the root element")
			}
		}
	}
}

// contexts converts the XML tree into the catalog model, resolving relative
// locations. A location without filename refers to the file of the previous
// location; a line starting with '+' or '-' is relative to the last line seen
// for that file.
func (doc *tsDocument) contexts() ([]*Context, error) {
	var (
		out      = make([]*Context, 0, len(doc.Contexts))
		lastFile string
		lastLine = map[string]int{}
	)

	for _, xc := range doc.Contexts {
		if !xc.Name.present {
			return nil, fmt.Errorf("%w: context without name", ErrMalformedDocument)
		}

		ctx := &Context{Name: xc.Name.Text, Messages: make([]*Message, 0, len(xc.Messages))}

		for _, xm := range xc.Messages {
			if !xm.Source.present {
				return nil, fmt.Errorf("%w: message without source in context %q", ErrMalformedDocument, ctx.Name)
			}

			status, err := parseStatus(xm.Translation.Type)
			if err != nil {
				return nil, err
			}

			m := &Message{
				ID:                xm.ID,
				Source:            xm.Source.Text,
				OldSource:         xm.OldSource.Text,
				Comment:           xm.Comment.Text,
				OldComment:        xm.OldComment.Text,
				ExtraComment:      xm.ExtraComment.Text,
				TranslatorComment: xm.TranslatorComment.Text,
				Numerus:           xm.Numerus == "yes",
				Status:            status,
			}

			if m.Numerus {
				for _, f := range xm.Translation.Numerus {
					m.NumerusForms = append(m.NumerusForms, f.Text)
				}
			} else {
				m.Translation = xm.Translation.Text.Text

				if len(xm.Translation.Text.Variants) > 1 {
					m.Variants = xm.Translation.Text.Variants
				}
			}

			for _, xl := range xm.Locations {
				file := lastFile
				if xl.Filename != nil {
					file = *xl.Filename
				}

				lastFile = file

				loc := Location{File: file}

				if xl.Line != "" {
					n, err := strconv.Atoi(strings.TrimPrefix(xl.Line, "+"))
					if err != nil {
						return nil, fmt.Errorf("%w: bad location line %q", ErrMalformedDocument, xl.Line)
					}

					if xl.Line[0] == '+' || xl.Line[0] == '-' {
						n += lastLine[file]
					}

					lastLine[file] = n
					loc.Line = n
				}

				m.Locations = append(m.Locations, loc)
			}

			ctx.Messages = append(ctx.Messages, m)
		}

		out = append(out, ctx)
	}

	return out, nil
}
