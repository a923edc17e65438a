// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"slices"

	"codeberg.org/tscat/tscat/server/middleware"
)

// Router is an http.ServeMux whose routes all run behind a chain of
// middleware, in the order the middleware was added with Use.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware
}

func NewRouter() *Router {
	return &Router{
		ServeMux: http.NewServeMux(),
	}
}

// Use appends mw to the chain.
func (router *Router) Use(mw middleware.Middleware) {
	router.middlewares = append(router.middlewares, mw)
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handler http.Handler = router.ServeMux

	for _, mw := range slices.Backward(router.middlewares) {
		next := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mw(w, r, next)
		})
	}

	handler.ServeHTTP(w, r)
}
