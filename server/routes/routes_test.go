// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/core/lrucache"
	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/router"
	"codeberg.org/tscat/tscat/server/routes"
)

const fiTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="fi" sourcelanguage="en">
<context>
    <name>Editor</name>
    <message>
        <source>Copy</source>
        <translation>Kopioi</translation>
    </message>
    <message numerus="yes">
        <source>%n lines moved.</source>
        <translation>
            <numerusform>%n rivi siirrettiin.</numerusform>
            <numerusform>%n riviä siirrettiin.</numerusform>
        </translation>
    </message>
    <message>
        <source>Note %1 of %2</source>
        <translation>Muistiinpano %1/%2</translation>
    </message>
    <message>
        <source>Paste</source>
        <translation type="unfinished"></translation>
    </message>
</context>
<context>
    <name>Status</name>
    <message>
        <source>Open</source>
        <comment>verb</comment>
        <translation>Avaa</translation>
    </message>
    <message>
        <source>Open</source>
        <comment>adjective</comment>
        <translation>Avoin</translation>
    </message>
</context>
</TS>
`

type testServer struct {
	handler http.Handler
	fsys    fstest.MapFS
}

// newTestServer builds the full router over a registry holding fiTS.
//
// It changes config.Global, so tests using it must not run in parallel.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	origConfig := config.Global

	t.Cleanup(func() { config.Global = origConfig })

	config.Global.Catalog.AllowReload = true
	config.Global.Limiter.Enabled = false

	logger := zerolog.Nop()
	fsys := fstest.MapFS{"locale/fi.ts": {Data: []byte(fiTS)}}

	reg, err := registry.New(registry.Options{
		FS:         fsys,
		Directory:  "locale",
		BaseLocale: "en",
		Logger:     &logger,
	})
	require.NoError(t, err)
	require.NoError(t, reg.Load(context.Background()))

	exports, err := lrucache.New(16, false)
	require.NoError(t, err)

	r := router.NewRouter()
	r.DefineRoutes(&routes.Handlers{Registry: reg, Exports: exports})
	r.RegisterMiddleware(reg)

	return &testServer{handler: r, fsys: fsys}
}

func (s *testServer) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())

	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["generation"])
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestTranslate(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		header     []string
		status     int
		text       string
		locale     string
		translated bool
		reason     string
	}{
		{
			name:   "AcceptLanguage",
			target: "/api/v1/translate?context=Editor&source=Copy",
			header: []string{"Accept-Language", "fi-FI,fi;q=0.9"},
			status: http.StatusOK, text: "Kopioi", locale: "fi", translated: true,
		},
		{
			name:   "BaseLocale",
			target: "/api/v1/translate?context=Editor&source=Copy",
			status: http.StatusOK, text: "Copy", locale: "en", translated: true,
		},
		{
			name:   "Plural",
			target: "/api/v1/translate?context=Editor&source=%25n+lines+moved.&n=3&lang=fi",
			status: http.StatusOK, text: "3 riviä siirrettiin.", locale: "fi", translated: true,
		},
		{
			name:   "Unfinished",
			target: "/api/v1/translate?context=Editor&source=Paste&lang=fi",
			status: http.StatusOK, text: "Paste", locale: "fi", reason: "missing",
		},
		{
			name:   "Ambiguous",
			target: "/api/v1/translate?context=Status&source=Open&lang=fi",
			status: http.StatusOK, text: "Open", locale: "fi", reason: "ambiguous",
		},
		{
			name:   "Disambiguated",
			target: "/api/v1/translate?context=Status&source=Open&disambiguation=verb&lang=fi",
			status: http.StatusOK, text: "Avaa", locale: "fi", translated: true,
		},
		{
			name:   "MissingSource",
			target: "/api/v1/translate?context=Editor",
			status: http.StatusBadRequest,
		},
		{
			name:   "InvalidCount",
			target: "/api/v1/translate?source=x&n=many",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodGet, tt.target, "", tt.header...)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			body := decode(t, rr)

			if tt.status != http.StatusOK {
				assert.InDelta(t, tt.status, body["status"], 0)
				assert.NotEmpty(t, body["error"])

				return
			}

			assert.Equal(t, tt.text, body["text"])
			assert.Equal(t, tt.locale, body["locale"])
			assert.Equal(t, tt.translated, body["translated"])

			if tt.reason == "" {
				assert.NotContains(t, body, "reason")
			} else {
				assert.Equal(t, tt.reason, body["reason"])
			}

			assert.Equal(t, tt.locale, rr.Header().Get("Content-Language"))
		})
	}
}

func TestFormat(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/v1/format?lang=fi",
		`{"context": "Editor", "source": "Note %1 of %2", "args": ["a.md", "b.md"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Muistiinpano a.md/b.md", decode(t, rr)["text"])

	rr = s.do(t, http.MethodPost, "/api/v1/format",
		`{"template": "%2 before %1", "args": ["one", "two"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "two before one", decode(t, rr)["text"])

	rr = s.do(t, http.MethodPost, "/api/v1/format?lang=fi",
		`{"context": "Editor", "source": "%n lines moved.", "n": 1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "1 rivi siirrettiin.", decode(t, rr)["text"])

	rr = s.do(t, http.MethodPost, "/api/v1/format", `{"args": []}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/format", `{"unknown": true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLocales(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/v1/locales", "", "Accept-Language", "fi")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "en", body["base"])
	assert.Equal(t, "fi", body["matched"])

	locales, ok := body["locales"].([]any)
	require.True(t, ok)
	require.Len(t, locales, 2)
	assert.Equal(t, "en", locales[0].(map[string]any)["tag"])
	assert.Equal(t, "fi", locales[1].(map[string]any)["tag"])
	assert.Contains(t, rr.Header().Get("Vary"), "Accept-Language")
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/v1/export/fi", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	assert.Equal(t, "application/xml; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=fi.ts`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), `<TS version="2.1" language="fi"`)

	again := s.do(t, http.MethodGet, "/api/v1/export/fi", "")
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, rr.Body.String(), again.Body.String())

	po := s.do(t, http.MethodGet, "/api/v1/export/fi_FI?format=po", "")
	require.Equal(t, http.StatusOK, po.Code, po.Body.String())
	assert.Contains(t, po.Body.String(), `msgstr "Kopioi"`)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/export/fi?format=xliff", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/export/de", "").Code)

	redirect := s.do(t, http.MethodGet, "/api/v1/export?lang=fi&format=yaml", "")
	assert.Equal(t, http.StatusPermanentRedirect, redirect.Code)
	assert.Equal(t, "/api/v1/export/fi?format=yaml", redirect.Header().Get("Location"))
}

func TestLint(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/v1/lint/fi", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, "fi", body["locale"])
	assert.Equal(t, "locale/fi.ts", body["file"])
	assert.NotNil(t, body["findings"])
}

func TestSetLanguage(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/v1/lang?lang=fi_FI", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, "fi-FI", body["lang"])
	assert.Equal(t, "fi", body["matched"])

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "Lang", cookies[0].Name)

	// The cookie selects the locale of later requests.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/translate?context=Editor&source=Copy", nil)
	req.AddCookie(cookies[0])

	next := httptest.NewRecorder()
	s.handler.ServeHTTP(next, req)
	assert.Equal(t, "Kopioi", decode(t, next)["text"])

	cleared := s.do(t, http.MethodPost, "/api/v1/lang?lang=auto", "")
	require.Equal(t, http.StatusOK, cleared.Code)
	require.Len(t, cleared.Result().Cookies(), 1)
	assert.True(t, cleared.Result().Cookies()[0].Expires.Before(time.Now()))

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/v1/lang?lang=!!", "").Code)
}

func TestReload(t *testing.T) {
	s := newTestServer(t)

	before := decode(t, s.do(t, http.MethodGet, "/healthz", ""))["generation"]

	s.do(t, http.MethodGet, "/api/v1/export/fi", "")

	s.fsys["locale/fi.ts"] = &fstest.MapFile{Data: []byte(strings.Replace(fiTS, "Kopioi", "Kopioi!", 1))}

	rr := s.do(t, http.MethodPost, "/api/v1/reload", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.NotEqual(t, before, body["generation"])
	assert.InDelta(t, 2, body["locales"], 0)

	export := s.do(t, http.MethodGet, "/api/v1/export/fi", "")
	assert.Equal(t, "MISS", export.Header().Get("X-Cache"))
	assert.Contains(t, export.Body.String(), "Kopioi!")
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/nothing/here", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, "no such route", body["error"])
	assert.InDelta(t, http.StatusNotFound, body["status"], 0)
	assert.NotEmpty(t, body["requestId"])

	// Unversioned API paths are redirected.
	rr = s.do(t, http.MethodGet, "/api/translate?source=Copy", "")
	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "/api/v1/translate?source=Copy", rr.Header().Get("Location"))
}
