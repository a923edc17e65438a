// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"time"

	"codeberg.org/tscat/tscat/catalog"
)

const (
	// Default HTTP cache max age in seconds for translation responses.
	defaultHTTPCacheMaxAgeSeconds = 60

	// Default number of rendered catalog exports kept in memory.
	defaultExportCacheSize = 32
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	// Host and Port are filled in by validateListener unless a unix socket is
	// configured.

	cfg.Catalog.Directory = "./locale"
	cfg.Catalog.Pattern = "*.ts"
	cfg.Catalog.BaseLocale = "en"
	cfg.Catalog.StrictMissingKeys = false
	cfg.Catalog.RawAmbiguityPolicy = catalog.AmbiguityReject.String()
	cfg.Catalog.Compressed = true
	cfg.Catalog.AllowReload = true

	cfg.Export.CacheSize = defaultExportCacheSize
	cfg.Export.Compress = true

	cfg.HTTPCache.MaxAge = defaultHTTPCacheMaxAgeSeconds * time.Second

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.StateFilepath = "./data/limiter_state.json"
	cfg.Limiter.FilterLocal = false
	cfg.Limiter.IPv4Prefix = 24
	cfg.Limiter.IPv6Prefix = 48
	cfg.Limiter.Rate = 20
	cfg.Limiter.Burst = 200
}
