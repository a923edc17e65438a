// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

// The code in this file redirects query-style URLs to their path-style routes.
//
// Add more redirects in (*Router).DefineRoutes

package router

import (
	"net/http"
	"net/url"

	"codeberg.org/tscat/tscat/server/utils"
)

// redirectWithQueryParam is a helper function to redirect requests to
// a target path built from the specified query parameter.
//
// Remaining query parameters are kept.
//
// Example:   /api/v1/export?lang=fi&format=po   ->   /api/v1/export/fi?format=po
func redirectWithQueryParam(targetPath, preservedParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := utils.GetQueryParam(r, preservedParam)
		if value == "" {
			http.NotFound(w, r)

			return
		}

		query := r.URL.Query()
		query.Del(preservedParam)

		target := targetPath + url.PathEscape(value)
		if encoded := query.Encode(); encoded != "" {
			target += "?" + encoded
		}

		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	}
}
