// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package catalog_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
)

func loadFixture(t *testing.T, name string, opts ...catalog.Option) (*catalog.Catalog, error) {
	t.Helper()

	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)

	t.Cleanup(func() { _ = f.Close() })

	opts = append([]catalog.Option{catalog.WithName(name), catalog.WithLogger(zerolog.Nop())}, opts...)

	return catalog.Load(f, opts...)
}

func mustLoad(t *testing.T, opts ...catalog.Option) *catalog.Catalog {
	t.Helper()

	c, err := loadFixture(t, "fi.ts", opts...)
	require.NoError(t, err)

	return c
}

func TestLoad(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)

	assert.Equal(t, "2.1", c.Version)
	assert.Equal(t, "fi", c.Language)
	assert.Equal(t, "en", c.SourceLanguage)
	assert.Equal(t, language.Finnish, c.Tag())
	assert.Equal(t, 2, c.Rule().Forms())
	assert.Equal(t, "fi.ts", c.Name())
	require.Len(t, c.Contexts, 2)
	assert.Equal(t, "Editor", c.Contexts[0].Name)
	assert.Equal(t, "Status", c.Contexts[1].Name)

	assert.Equal(t, catalog.Stats{
		Contexts:   2,
		Messages:   14,
		Finished:   12,
		Unfinished: 1,
		Vanished:   1,
		Numerus:    3,
		Issues:     2,
	}, c.Stats())

	issues := c.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, catalog.IssueDuplicate, issues[0].Kind)
	assert.Equal(t, "Search hit BOTTOM, continuing at TOP", issues[0].Source)
	assert.Equal(t, catalog.IssuePluralFormCountMismatch, issues[1].Kind)
	assert.Equal(t, "%n files", issues[1].Source)
}

func TestLoadLocations(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)

	var got [][]catalog.Location

	for _, m := range c.Contexts[0].Messages {
		got = append(got, m.Locations)
	}

	assert.Equal(t, [][]catalog.Location{
		{{File: "../src/editor.cpp", Line: 120}},
		{{File: "../src/editor.cpp", Line: 132}},
		{{File: "../src/editor.cpp", Line: 135}},
		{{File: "../src/storage.cpp", Line: 40}},
		{{File: "../src/search.cpp", Line: 88}},
		{{File: "../src/search.cpp", Line: 93}},
		{{File: "../src/search.cpp", Line: 33}},
		nil,
		nil,
	}, got)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("Malformed", func(t *testing.T) {
		t.Parallel()

		_, err := loadFixture(t, "malformed.ts")
		require.ErrorIs(t, err, catalog.ErrMalformedDocument)

		var perr *catalog.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "malformed.ts", perr.File)
		assert.Positive(t, perr.Line)
		assert.True(t, strings.HasPrefix(err.Error(), "catalog: malformed.ts:"))
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		t.Parallel()

		_, err := loadFixture(t, "future.ts")
		require.ErrorIs(t, err, catalog.ErrUnsupportedSchemaVersion)
		assert.NotErrorIs(t, err, catalog.ErrMalformedDocument)
	})

	tests := []struct {
		name string
		doc  string
	}{
		{"Empty", ""},
		{"NotTS", `<xliff version="1.2"></xliff>`},
		{"ContextWithoutName", `<TS version="2.1"><context><message><source>a</source></message></context></TS>`},
		{"MessageWithoutSource", `<TS version="2.1"><context><name>A</name><message><translation>b</translation></message></context></TS>`},
		{"EmptySource", `<TS version="2.1"><context><name>A</name><message><source></source></message></context></TS>`},
		{"DuplicateContext", `<TS version="2.1"><context><name>A</name></context><context><name>A</name></context></TS>`},
		{"UnknownType", `<TS version="2.1"><context><name>A</name><message><source>a</source><translation type="done">b</translation></message></context></TS>`},
		{"BadLine", `<TS version="2.1"><context><name>A</name><message><location filename="a.cpp" line="x"/><source>a</source></message></context></TS>`},
		{"BadByte", `<TS version="2.1"><context><name>A</name><message><source>a<byte value="xZZ"/></source></message></context></TS>`},
		{"ElementAfterRoot", `<TS version="2.1"></TS><garbage><unclosed`},
		{"ClosedElementAfterRoot", `<TS version="2.1"></TS><TS version="2.1"></TS>`},
		{"TextAfterRoot", `<TS version="2.1"></TS>trailing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := catalog.Load(strings.NewReader(tt.doc), catalog.WithLogger(zerolog.Nop()))
			require.ErrorIs(t, err, catalog.ErrMalformedDocument)
			assert.Nil(t, c)
		})
	}
}

func TestLoadAllowsTrailingMisc(t *testing.T) {
	t.Parallel()

	doc := "<TS version=\"2.1\"><context><name>A</name><message><source>Yes</source><translation>Ja</translation></message></context></TS>\n<!-- end -->\n"

	c, err := catalog.Load(strings.NewReader(doc), catalog.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	assert.Equal(t, "Ja", c.Lookup("A", "Yes", ""))
}

func TestLoadDefaultVersion(t *testing.T) {
	t.Parallel()

	doc := `<TS language="de"><context><name>A</name><message><source>Yes</source><translation>Ja</translation></message></context></TS>`

	c, err := catalog.Load(strings.NewReader(doc), catalog.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	assert.Equal(t, catalog.DefaultVersion, c.Version)
	assert.Equal(t, "Ja", c.Lookup("A", "Yes", ""))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)

	tests := []struct {
		name                            string
		context, source, disambiguation string
		want                            string
	}{
		{"Disambiguated", "Editor", "Copy", "as noun", "Kopio"},
		{"AmbiguousWithoutDisambiguation", "Editor", "Copy", "", "Copy"},
		{"UnknownDisambiguationFallsBack", "Editor", "Copy", "as verb", "Kopioi"},
		{"UnknownDisambiguationWithoutFallback", "Status", "Open", "noun", "Open"},
		{"OtherDisambiguation", "Status", "Open", "adjective", "Avoin"},
		{"DuplicateUsesFirst", "Editor", "Search hit BOTTOM, continuing at TOP", "", "Haku saavutti LOPUN, jatketaan ALUSTA"},
		{"MarkupVerbatim", "Editor", "<b>%1</b> of %2 & more", "", "<b>%1</b>/%2 & enemmän"},
		{"ByteEscape", "Editor", "Press Esc", "", "Paina \x1bEsc"},
		{"Unfinished", "Editor", "stored %n note(s) to disk", "", "stored %n note(s) to disk"},
		{"Vanished", "Editor", "Removed", "", "Removed"},
		{"NumerusFirstForm", "Editor", "%n lines moved.", "", "%n rivi siirrettiin."},
		{"LengthVariantFirst", "Status", "Ready", "", "Valmiina"},
		{"MissingSource", "Editor", "Paste", "", "Paste"},
		{"MissingContext", "Toolbar", "Copy", "", "Copy"},
		{"ContextIsPartOfKey", "Status", "Copy", "as noun", "Copy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, c.Lookup(tt.context, tt.source, tt.disambiguation))
		})
	}
}

func TestLookupPlural(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)

	tests := []struct {
		source string
		n      int
		want   string
	}{
		{"%n lines moved.", 1, "1 rivi siirrettiin."},
		{"%n lines moved.", 5, "5 riviä siirrettiin."},
		{"%n lines moved.", 0, "0 riviä siirrettiin."},
		{"%n lines moved.", 21, "21 riviä siirrettiin."},
		{"%n lines moved.", -1, "-1 rivi siirrettiin."},
		{"stored %n note(s) to disk", 3, "stored 3 note(s) to disk"},
		{"Undo %n step(s)", 2, "Undo 2 step(s)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.LookupPlural("Editor", tt.source, "", tt.n), "%s with n=%d", tt.source, tt.n)
	}

	// Form count mismatch falls back to the source.
	assert.Equal(t, "3 files", c.LookupPlural("Status", "%n files", "", 3))
}

func TestFind(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)

	m, err := c.Find("Editor", "Copy", "as noun")
	require.NoError(t, err)
	assert.Equal(t, "as noun", m.Comment)

	_, err = c.Find("Editor", "Copy", "")
	require.ErrorIs(t, err, catalog.ErrAmbiguous)

	_, err = c.Find("Editor", "Paste", "")
	require.ErrorIs(t, err, catalog.ErrMissingKey)

	m, err = c.Find("Editor", "stored %n note(s) to disk", "")
	require.ErrorIs(t, err, catalog.ErrMissingKey)
	assert.Equal(t, catalog.Unfinished, m.Status)

	_, err = c.Find("Status", "%n files", "")
	require.ErrorIs(t, err, catalog.ErrPluralFormCountMismatch)

	assert.True(t, c.Translated("Status", "Open", "verb"))
	assert.False(t, c.Translated("Status", "Open", ""))
}

func TestAmbiguityFirst(t *testing.T) {
	t.Parallel()

	c := mustLoad(t, catalog.WithAmbiguityPolicy(catalog.AmbiguityFirst))

	assert.Equal(t, catalog.AmbiguityFirst, c.Policy())
	assert.Equal(t, "Kopio", c.Lookup("Editor", "Copy", ""))
	assert.Equal(t, "Avaa", c.Lookup("Status", "Open", ""))
}

func TestAmbiguityLoggedOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	c := mustLoad(t, catalog.WithLogger(zerolog.New(&buf)))

	for range 3 {
		c.Lookup("Editor", "Copy", "")
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "Ambiguous lookup"))
}

func TestSingleMessageWithComment(t *testing.T) {
	t.Parallel()

	c, err := catalog.New("2.1", "fi", "en", []*catalog.Context{{
		Name: "Menu",
		Messages: []*catalog.Message{
			{Source: "File", Comment: "menu title", Translation: "Tiedosto"},
		},
	}}, catalog.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	assert.Equal(t, "Tiedosto", c.Lookup("Menu", "File", ""))
	assert.Equal(t, "Tiedosto", c.Lookup("Menu", "File", "menu title"))
}

func TestLookupID(t *testing.T) {
	t.Parallel()

	c := mustLoad(t)

	assert.Equal(t, "Valmiina", c.LookupID("status.ready"))
	assert.Equal(t, "nope", c.LookupID("nope"))

	m, err := c.Find("Status", "Ready", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Valmiina", "Valmis"}, m.Variants)
}

func TestIdempotentLoad(t *testing.T) {
	t.Parallel()

	a, b := mustLoad(t), mustLoad(t)

	assertSameLookups(t, a, b)
}

// assertSameLookups checks that every key of a resolves identically in b.
func assertSameLookups(t *testing.T, a, b *catalog.Catalog) {
	t.Helper()

	for ctx, m := range a.All() {
		for _, d := range []string{m.Comment, ""} {
			assert.Equal(t, a.Lookup(ctx, m.Source, d), b.Lookup(ctx, m.Source, d), "%s/%q/%q", ctx, m.Source, d)

			for n := range 6 {
				assert.Equal(t, a.LookupPlural(ctx, m.Source, d, n), b.LookupPlural(ctx, m.Source, d, n))
			}
		}

		if m.ID != "" {
			assert.Equal(t, a.LookupID(m.ID), b.LookupID(m.ID))
		}
	}
}

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"fi", "fi"},
		{"fi_FI", "fi-FI"},
		{"pt_BR", "pt-BR"},
		{"sr@latin", "sr-Latn"},
		{"ca@valencia", "ca"},
	}

	for _, tt := range tests {
		tag, err := catalog.ParseLanguage(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, tag.String())
	}

	_, err := catalog.ParseLanguage("not a language")
	require.Error(t, err)
}

func TestParseAmbiguityPolicy(t *testing.T) {
	t.Parallel()

	p, err := catalog.ParseAmbiguityPolicy("First")
	require.NoError(t, err)
	assert.Equal(t, catalog.AmbiguityFirst, p)

	p, err = catalog.ParseAmbiguityPolicy("")
	require.NoError(t, err)
	assert.Equal(t, catalog.AmbiguityReject, p)

	_, err = catalog.ParseAmbiguityPolicy("random")
	require.Error(t, err)
	assert.False(t, errors.Is(err, catalog.ErrAmbiguous))
}
