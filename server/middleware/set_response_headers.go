// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/request_context"
)

// baseHeaders defines the default headers to be set in responses.
//
// Tscat-Version and Tscat-Revision are added dynamically in SetResponseHeaders.
var baseHeaders = http.Header{
	"Referrer-Policy":         {"no-referrer"},
	"X-Frame-Options":         {"DENY"},
	"X-Content-Type-Options":  {"nosniff"},
	"Content-Security-Policy": {"default-src 'none'; frame-ancestors 'none'"},
}

// negotiatedPrefixes are the routes whose responses depend on the locale
// matched for the request.
var negotiatedPrefixes = []string{
	"/api/v1/translate",
	"/api/v1/format",
	"/api/v1/locales",
}

// cachedPrefixes are the routes that may be cached for HTTPCache.MaxAge.
var cachedPrefixes = []string{
	"/api/v1/translate",
	"/api/v1/locales",
	"/api/v1/export/",
	"/api/v1/lint/",
}

// SetResponseHeaders adds default headers to HTTP responses.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	setCacheControl(headers, r.URL.Path)

	if hasAnyPrefix(r.URL.Path, negotiatedPrefixes) {
		headers.Set("Vary", "Accept-Language, Cookie")

		if t := request_context.FromRequest(r).T; t != (language.Tag{}) {
			headers.Set("Content-Language", t.String())
		}
	}

	headers.Set("Tscat-Version", config.BuildVersion)
	headers.Set("Tscat-Revision", config.Global.Build.Revision())

	next.ServeHTTP(w, r)
}

// setCacheControl sets the Cache-Control header for path.
func setCacheControl(headers http.Header, path string) {
	// Default to only storing in the browser cache and forcing revalidation
	cacheControl := "private, no-cache"

	maxAge := int(config.Global.HTTPCache.MaxAge.Seconds())

	switch {
	case config.Global.Development.InDevelopment:
		cacheControl = "no-store"
	case maxAge > 0 && hasAnyPrefix(path, cachedPrefixes):
		cacheControl = "max-age=" + strconv.Itoa(maxAge)
	}

	headers.Set("Cache-Control", cacheControl)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
