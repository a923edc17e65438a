// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"

	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/request_context"
)

// WithRequestContext returns a middleware that attaches a RequestContext,
// carrying the locale reg matched for the request, to each HTTP request.
func WithRequestContext(reg *registry.Registry) middleware.Middleware {
	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		next.ServeHTTP(w, r.WithContext(request_context.WithRequestContext(r.Context(), r, reg)))
	}
}
