// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/server/routes"
)

// CatchError adapts a handler that returns an error to http.HandlerFunc.
//
// The handler writes into a buffer. Its output reaches the client only when
// it succeeds; otherwise the buffer is dropped and routes.ErrorPage writes a
// JSON error instead. The status of that error is the one carried by a
// *routes.HTTPError, 404 for a handler that wrote a bare 404, and 500 for
// any other error. Every request is logged through an audit.Span.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToClient,
			RequestID:   ctx.RequestID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}

		_ = span.Begin(r.Context())
		defer span.End()

		buf := httptest.NewRecorder()

		ctx.RequestError = handler(buf, r)

		var keep bool

		ctx.StatusCode, keep = responseStatus(ctx.RequestError, buf.Code)

		if keep {
			maps.Copy(w.Header(), buf.Header())
			w.WriteHeader(ctx.StatusCode)

			span.Size = buf.Body.Len()

			if _, err := buf.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		} else {
			routes.ErrorPage(w, r)
		}

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}

// responseStatus returns the status of the response to a handler that
// returned err after writing status code, and whether the handler's own
// output is sent.
func responseStatus(err error, code int) (int, bool) {
	if code == 0 {
		code = http.StatusOK
	}

	var httpErr *routes.HTTPError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.StatusCode, false
	case err != nil && code < http.StatusBadRequest:
		return http.StatusInternalServerError, false
	case code == http.StatusNotFound:
		return code, false
	}

	return code, true
}
