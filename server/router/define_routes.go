// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/assets"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/routes"
)

// DefineRoutes sets up all the routes for the application using our custom Router.
//
// Middleware is registered separately with RegisterMiddleware.
func (router *Router) DefineRoutes(h *routes.Handlers) {
	router.Handle("GET /robots.txt", fileServer())

	router.HandleFunc("GET /healthz", middleware.CatchError(h.Healthz))

	// Catalog queries
	router.HandleFunc("GET /api/v1/locales", middleware.CatchError(h.Locales))
	router.HandleFunc("GET /api/v1/translate", middleware.CatchError(h.Translate))
	router.HandleFunc("POST /api/v1/format", middleware.CatchError(h.Format))

	// Catalog files
	router.HandleFunc("GET /api/v1/export/{lang}", middleware.CatchError(h.Export))
	router.HandleFunc("GET /api/v1/export", redirectWithQueryParam("/api/v1/export/", "lang"))
	router.HandleFunc("GET /api/v1/lint/{lang}", middleware.CatchError(h.Lint))
	router.HandleFunc("GET /api/v1/lint", redirectWithQueryParam("/api/v1/lint/", "lang"))

	// Language preference
	router.HandleFunc("POST /api/v1/lang", middleware.CatchError(h.SetLanguage))

	if config.Global.Catalog.AllowReload {
		router.HandleFunc("POST /api/v1/reload", middleware.CatchError(h.Reload))
	}

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}

	// Everything else
	router.HandleFunc("/", middleware.CatchError(routes.NotFound))
}

// fileServer serves the embedded assets. They only change with a new build,
// so the instance ID is a valid strong ETag.
// ref: https://www.rfc-editor.org/rfc/rfc9110#weak.and.strong.validators
func fileServer() http.Handler {
	files := http.FileServerFS(assets.FS)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=3600")
		w.Header().Set("ETag", `"`+config.Global.Instance.ID+`"`)
		files.ServeHTTP(w, r)
	})
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	if !flightRecorder.Enabled() {
		if err := flightRecorder.Start(); err != nil {
			panic(err)
		}
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, r *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
