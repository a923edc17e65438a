// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"

	"codeberg.org/tscat/tscat/server/request_context"
)

var errNoRoute = errors.New("no such route")

// HTTPError is an error that is reported with StatusCode.
type HTTPError struct {
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func badRequest(err error) error {
	return &HTTPError{StatusCode: http.StatusBadRequest, Err: err}
}

func notFound(err error) error {
	return &HTTPError{StatusCode: http.StatusNotFound, Err: err}
}

type errorData struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status"`
	RequestID  string `json:"requestId,omitempty"`
}

// ErrorPage writes the error and status code stored in the request context
// as a JSON body.
func ErrorPage(w http.ResponseWriter, r *http.Request) {
	ctx := request_context.FromRequest(r)

	statusCode := ctx.StatusCode
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}

	data := errorData{
		Error:      http.StatusText(statusCode),
		StatusCode: statusCode,
		RequestID:  ctx.RequestID,
	}

	if ctx.RequestError != nil {
		data.Error = ctx.RequestError.Error()
	}

	w.Header().Set("Cache-Control", "no-store")

	_ = writeJSON(w, statusCode, data)
}

// NotFound handles requests no other route matched.
func NotFound(w http.ResponseWriter, r *http.Request) error {
	return notFound(errNoRoute)
}
