// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// currentAPIPrefix is where the API routes live.
const currentAPIPrefix = "/api/v1/"

// unversionedAPIPaths are API routes also reachable without a version segment.
var unversionedAPIPaths = []string{
	"locales",
	"translate",
	"format",
	"reload",
	"lang",
	"export/",
	"lint/",
}

// NormalizeURL is a middleware that handles URL normalization by:
// 1. Redirecting unversioned API paths such as /api/translate to /api/v1/.
// 2. Removing trailing slashes from URLs (except root).
//
// Redirects use 308 Permanent Redirect so POST requests keep their method and body.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if hasUnversionedAPIPrefix(r) {
		addAPIVersion(w, r)

		return
	}

	if hasTrailingSlash(r) {
		removeTrailingSlash(w, r)

		return
	}

	next.ServeHTTP(w, r)
}

// hasTrailingSlash checks if a request path has a trailing slash (except root).
func hasTrailingSlash(r *http.Request) bool {
	return r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/")
}

// removeTrailingSlash removes trailing slash and redirects.
func removeTrailingSlash(w http.ResponseWriter, r *http.Request) {
	target := *r.URL

	target.Path = strings.TrimSuffix(target.Path, "/")
	target.RawPath = ""

	http.Redirect(w, r, target.String(), http.StatusPermanentRedirect)
}

// hasUnversionedAPIPrefix checks if a request path is an API route lacking
// the version segment.
func hasUnversionedAPIPrefix(r *http.Request) bool {
	rest, ok := strings.CutPrefix(r.URL.Path, "/api/")
	if !ok {
		return false
	}

	for _, p := range unversionedAPIPaths {
		if strings.HasSuffix(p, "/") && strings.HasPrefix(rest, p) {
			return true
		}

		if rest == p {
			return true
		}
	}

	return false
}

// addAPIVersion inserts the version segment and redirects.
func addAPIVersion(w http.ResponseWriter, r *http.Request) {
	target := *r.URL

	target.Path = currentAPIPrefix + strings.TrimPrefix(r.URL.Path, "/api/")
	target.RawPath = ""

	http.Redirect(w, r, target.String(), http.StatusPermanentRedirect)
}
