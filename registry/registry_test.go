// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package registry_test

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/registry"
)

const fiTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="fi" sourcelanguage="en">
<context>
    <name>Editor</name>
    <message numerus="yes">
        <source>%n lines moved.</source>
        <translation>
            <numerusform>%n rivi siirrettiin.</numerusform>
            <numerusform>%n riviä siirrettiin.</numerusform>
        </translation>
    </message>
    <message>
        <source>Cut</source>
        <comment>as noun</comment>
        <translation>Leikkaus</translation>
    </message>
    <message>
        <source>Copy</source>
        <translation>Kopioi</translation>
    </message>
    <message>
        <source>Paste</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>
`

const deTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de_DE" sourcelanguage="en">
<context>
    <name>Editor</name>
    <message>
        <source>Copy</source>
        <translation>Kopieren</translation>
    </message>
</context>
</TS>
`

const fiDuplicateTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="fi">
<context>
    <name>Editor</name>
    <message>
        <source>Copy</source>
        <translation>Kopioi tämä</translation>
    </message>
</context>
</TS>
`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	t.Helper()

	return fstest.MapFS{
		"locale/fi.ts":      {Data: []byte(fiTS)},
		"locale/fi_copy.ts": {Data: []byte(fiDuplicateTS)},
		"locale/de.ts.gz":   {Data: gzipped(t, deTS)},
		"locale/broken.ts":  {Data: []byte("<TS version=\"2.1\"><context>")},
		"locale/README.md":  {Data: []byte("not a catalog")},
		"locale/sub/ja.ts":  {Data: []byte(fiTS)},
		"other/ignored.ts":  {Data: []byte(fiTS)},
	}
}

func newRegistry(t *testing.T, fsys fstest.MapFS, mutate ...func(*registry.Options)) *registry.Registry {
	t.Helper()

	logger := zerolog.Nop()

	opts := registry.Options{
		FS:         fsys,
		Directory:  "locale",
		Compressed: true,
		BaseLocale: "en",
		Logger:     &logger,
	}

	for _, m := range mutate {
		m(&opts)
	}

	r, err := registry.New(opts)
	require.NoError(t, err)

	return r
}

func loaded(t *testing.T, mutate ...func(*registry.Options)) *registry.Registry {
	t.Helper()

	r := newRegistry(t, testFS(t), mutate...)
	require.NoError(t, r.Load(context.Background()))

	return r
}

func TestLoad(t *testing.T) {
	t.Parallel()

	r := loaded(t)

	assert.Equal(t,
		[]language.Tag{language.English, language.MustParse("de-DE"), language.Finnish},
		r.Languages())
	assert.NotEmpty(t, r.Generation())
	assert.False(t, r.LoadedAt().IsZero())

	fi := r.Catalog(language.Finnish)
	require.NotNil(t, fi)
	assert.Equal(t, "locale/fi.ts", fi.Name())
	assert.Nil(t, r.Catalog(language.English))
	assert.Nil(t, r.Catalog(language.Japanese))

	locales := r.Locales()
	require.Len(t, locales, 3)
	assert.Equal(t, registry.Locale{Tag: "en", Base: true}, locales[0])
	assert.Equal(t, "locale/de.ts.gz", locales[1].File)
	assert.Equal(t, "fi", locales[2].Tag)
	require.NotNil(t, locales[2].Stats)
	assert.Equal(t, 4, locales[2].Stats.Messages)
}

func TestLoadLogsOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	r := newRegistry(t, testFS(t), func(o *registry.Options) { o.Logger = &logger })
	require.NoError(t, r.Load(context.Background()))
	require.NoError(t, r.Reload(context.Background()))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"message":"Loaded catalogs"`))
	assert.Contains(t, out, `"generation":"`+r.Generation()+`"`)
	assert.Contains(t, out, `"locales":2`)
}

func TestLoadWithoutCompressed(t *testing.T) {
	t.Parallel()

	r := loaded(t, func(o *registry.Options) { o.Compressed = false })

	assert.Equal(t, []language.Tag{language.English, language.Finnish}, r.Languages())
}

func TestBeforeLoad(t *testing.T) {
	t.Parallel()

	r := newRegistry(t, testFS(t))
	ctx := registry.WithTag(context.Background(), language.Finnish)

	assert.Empty(t, r.Generation())
	assert.Equal(t, []language.Tag{language.English}, r.Languages())
	assert.Equal(t, "Copy", r.Tr(ctx, "Editor", "Copy"))
	assert.Equal(t, "3 lines moved.", r.TrN(ctx, "Editor", "%n lines moved.", 3))
	assert.Equal(t, language.English, r.FromRequest(httptest.NewRequest(http.MethodGet, "/?lang=fi", nil)))
}

func TestNewInvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := registry.New(registry.Options{Directory: ".", Pattern: "[*.ts"})
	require.Error(t, err)

	_, err = registry.New(registry.Options{Directory: ".", BaseLocale: "not a locale"})
	require.Error(t, err)
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	r := loaded(t)

	fi := registry.WithTag(context.Background(), language.MustParse("fi-FI"))
	de := registry.WithTag(context.Background(), language.German)
	en := context.Background()

	assert.Equal(t, "Kopioi", r.Tr(fi, "Editor", "Copy"))
	assert.Equal(t, "Leikkaus", r.TrD(fi, "Editor", "Cut", "as noun"))
	assert.Equal(t, "Leikkaus", r.Tr(fi, "Editor", "Cut"))
	assert.Equal(t, "Kopioi", r.TrD(fi, "Editor", "Copy", "as verb"))
	assert.Equal(t, "1 rivi siirrettiin.", r.TrN(fi, "Editor", "%n lines moved.", 1))
	assert.Equal(t, "5 riviä siirrettiin.", r.TrND(fi, "Editor", "%n lines moved.", "", 5))
	assert.Equal(t, "Paste", r.Tr(fi, "Editor", "Paste"))

	assert.Equal(t, "Kopieren", r.Tr(de, "Editor", "Copy"))
	assert.Equal(t, "Copy", r.Tr(en, "Editor", "Copy"))
	assert.Equal(t, "2 lines moved.", r.TrN(en, "Editor", "%n lines moved.", 2))

	res := r.Resolve(fi, registry.Key{Context: "Editor", Source: "Paste"})
	assert.False(t, res.Translated)
	assert.Equal(t, language.Finnish, res.Locale)
	require.ErrorIs(t, res.Err, catalog.ErrMissingKey)
	assert.Equal(t, "missing", res.Reason())

	res = r.Resolve(en, registry.Key{Context: "Editor", Source: "Paste"})
	assert.True(t, res.Translated)
	assert.Empty(t, res.Reason())
	assert.Equal(t, language.English, res.Locale)

	res = r.Resolve(de, registry.Key{Context: "Editor", Source: "Copy"})
	assert.True(t, res.Translated)
	assert.Equal(t, language.MustParse("de-DE"), res.Locale)

	assert.Same(t, r.Catalog(language.Finnish), r.For(fi))
	assert.Equal(t, "1,500", r.For(en).Format("%L1", 1500))
}

func TestStrictMissingKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	r := loaded(t, func(o *registry.Options) {
		o.StrictMissingKeys = true
		o.Logger = &logger
	})

	fi := registry.WithTag(context.Background(), language.Finnish)

	assert.Equal(t, "⟦Paste⟧", r.Tr(fi, "Editor", "Paste"))
	assert.Equal(t, "⟦Paste⟧", r.Tr(fi, "Editor", "Paste"))
	assert.Equal(t, "⟦Copy⟧", r.TrD(fi, "Other", "Copy", "x"))
	assert.Equal(t, "Kopioi", r.Tr(fi, "Editor", "Copy"))

	// The base locale is never missing.
	assert.Equal(t, "Paste", r.Tr(context.Background(), "Editor", "Paste"))

	assert.Equal(t, 2, strings.Count(buf.String(), "Missing translation"))
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	r := loaded(t)

	tests := []struct {
		name   string
		target string
		cookie string
		header string
		want   language.Tag
	}{
		{"Default", "/", "", "", language.English},
		{"Query", "/?lang=fi_FI", "", "", language.Finnish},
		{"QueryBeatsHeader", "/?lang=fi", "", "de", language.Finnish},
		{"Cookie", "/", "fi", "de", language.Finnish},
		{"QueryBeatsCookie", "/?lang=de-DE", "fi-FI", "", language.MustParse("de-DE")},
		{"Header", "/", "", "fi;q=0.9, en;q=0.1", language.Finnish},
		{"AutoIgnoresCookie", "/?lang=auto", "fi", "de-DE", language.MustParse("de-DE")},
		{"Unsupported", "/?lang=ja", "", "", language.English},
		{"Garbage", "/?lang=%21%21", "", "", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "Lang", Value: tt.cookie})
			}

			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}

			assert.Equal(t, tt.want, r.FromRequest(req))
			assert.Equal(t, tt.want, r.TagFrom(r.WithRequest(context.Background(), req)))
		})
	}

	assert.Equal(t, language.English, r.FromRequest(nil))
}

func TestReload(t *testing.T) {
	t.Parallel()

	fsys := testFS(t)
	r := newRegistry(t, fsys)
	require.NoError(t, r.Load(context.Background()))

	first := r.Generation()
	fi := registry.WithTag(context.Background(), language.Finnish)

	fsys["locale/fi.ts"] = &fstest.MapFile{Data: []byte(strings.Replace(fiTS, "Kopioi<", "Kopioi!<", 1))}

	require.NoError(t, r.Reload(context.Background()))
	assert.NotEqual(t, first, r.Generation())
	assert.Equal(t, "Kopioi!", r.Tr(fi, "Editor", "Copy"))

	second := r.Generation()

	for name := range fsys {
		delete(fsys, name)
	}

	require.Error(t, r.Reload(context.Background()))
	assert.Equal(t, second, r.Generation())
	assert.Equal(t, "Kopioi!", r.Tr(fi, "Editor", "Copy"))
}

func TestReloadCancelled(t *testing.T) {
	t.Parallel()

	r := newRegistry(t, testFS(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, r.Load(ctx), context.Canceled)
	assert.Empty(t, r.Generation())
}

func TestConcurrentLookupsDuringReload(t *testing.T) {
	t.Parallel()

	r := loaded(t)
	fi := registry.WithTag(context.Background(), language.Finnish)

	var wg sync.WaitGroup

	for range 8 {
		wg.Go(func() {
			for range 200 {
				assert.Equal(t, "Kopioi", r.Tr(fi, "Editor", "Copy"))
			}
		})
	}

	for range 5 {
		wg.Go(func() {
			assert.NoError(t, r.Reload(context.Background()))
		})
	}

	wg.Wait()
}

// swapFS serves one of several file trees, switched atomically.
type swapFS struct {
	cur atomic.Pointer[fstest.MapFS]
}

func (s *swapFS) Open(name string) (fs.File, error) {
	return s.cur.Load().Open(name)
}

func TestResolveMatchesCatalogDuringReload(t *testing.T) {
	t.Parallel()

	withFinnish := fstest.MapFS{"locale/fi.ts": {Data: []byte(fiTS)}}
	withoutFinnish := fstest.MapFS{"locale/de.ts": {Data: []byte(deTS)}}

	fsys := &swapFS{}
	fsys.cur.Store(&withFinnish)

	logger := zerolog.Nop()

	r, err := registry.New(registry.Options{
		FS:         fsys,
		Directory:  "locale",
		BaseLocale: "en",
		Logger:     &logger,
	})
	require.NoError(t, err)
	require.NoError(t, r.Load(context.Background()))

	fi := registry.WithTag(context.Background(), language.Finnish)

	var (
		wg   sync.WaitGroup
		done atomic.Bool
	)

	for range 4 {
		wg.Go(func() {
			for !done.Load() {
				res := r.Resolve(fi, registry.Key{Context: "Editor", Source: "Copy"})
				if res.Locale == language.Finnish {
					assert.Equal(t, "Kopioi", res.Text)
				} else {
					assert.Equal(t, "Copy", res.Text)
				}
			}
		})
	}

	for i := range 20 {
		if i%2 == 0 {
			fsys.cur.Store(&withoutFinnish)
		} else {
			fsys.cur.Store(&withFinnish)
		}

		assert.NoError(t, r.Reload(context.Background()))
	}

	done.Store(true)
	wg.Wait()
}
