// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/middleware/limiter"
	"codeberg.org/tscat/tscat/server/middleware/set_request_context"
)

func (router *Router) RegisterMiddleware(reg *registry.Registry) {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                     // handle trailing slashes and unversioned API paths
	router.Use(set_request_context.WithRequestContext(reg)) // needed for everything else
	router.Use(middleware.SetResponseHeaders)               // all responses need this

	if config.Global.Limiter.Enabled {
		limiter.Init()

		router.Use(limiter.Evaluate)
	}
}
