// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/convert"
	"codeberg.org/tscat/tscat/server/utils"
)

var (
	errNoCatalog          = errors.New("no catalog for locale")
	errUnknownFormat      = errors.New("unknown export format")
	errInvalidLanguageTag = errors.New("invalid language tag")
)

// exportFormat renders a catalog in one interchange format.
type exportFormat struct {
	contentType string
	ext         string
	render      func(w io.Writer, c *catalog.Catalog) error
}

var exportFormats = map[string]exportFormat{
	"ts":   {"application/xml; charset=utf-8", ".ts", catalog.Encode},
	"po":   {"text/x-gettext-translation; charset=utf-8", ".po", convert.WritePO},
	"toml": {"application/toml; charset=utf-8", ".toml", convert.WriteTOML},
	"yaml": {"application/yaml; charset=utf-8", ".yaml", convert.WriteYAML},
}

// catalogFor returns the catalog of the supported locale matching the {lang}
// path variable.
func (h *Handlers) catalogFor(r *http.Request) (language.Tag, *catalog.Catalog, error) {
	lang := utils.GetPathVar(r, "lang")

	tag, err := catalog.ParseLanguage(lang)
	if err != nil {
		return language.Und, nil, badRequest(fmt.Errorf("%w: %w", errInvalidLanguageTag, err))
	}

	matched := h.Registry.Match(tag)

	c := h.Registry.Catalog(matched)
	if c == nil {
		return matched, nil, notFound(fmt.Errorf("%w: %s", errNoCatalog, lang))
	}

	return matched, c, nil
}

// Export writes the catalog of the {lang} path variable in the format given
// by the format query parameter: ts (the default), po, toml or yaml.
//
// Rendered bodies are cached per registry generation, so a reload never
// serves a stale export.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) error {
	name := utils.GetQueryParam(r, "format", "ts")

	format, ok := exportFormats[name]
	if !ok {
		return badRequest(fmt.Errorf("%w: %q", errUnknownFormat, name))
	}

	generation := h.Registry.Generation()

	tag, c, err := h.catalogFor(r)
	if err != nil {
		return err
	}

	cacheKey := generation + "/" + tag.String() + "/" + name

	body, hit := h.cachedExport(cacheKey)
	if !hit {
		var metric *servertiming.Metric
		if timing := servertiming.FromContext(r.Context()); timing != nil {
			metric = timing.NewMetric("render").WithDesc("catalog export").Start()
		}

		var buf bytes.Buffer
		if err := format.render(&buf, c); err != nil {
			return fmt.Errorf("failed to render %s export for %s: %w", name, tag, err)
		}

		if metric != nil {
			metric.Stop()
		}

		body = buf.Bytes()

		if h.Exports != nil {
			h.Exports.Add(cacheKey, body)
		}
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	w.Header().Set("Content-Type", format.contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": tag.String() + format.ext,
	}))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}

func (h *Handlers) cachedExport(key string) ([]byte, bool) {
	if h.Exports == nil {
		return nil, false
	}

	return h.Exports.Get(key)
}
