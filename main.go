// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
tscat serves the translations of Qt Linguist catalogs over HTTP.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/core/lrucache"
	"codeberg.org/tscat/tscat/registry"
	"codeberg.org/tscat/tscat/server/middleware/limiter"
	"codeberg.org/tscat/tscat/server/router"
	"codeberg.org/tscat/tscat/server/routes"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 30 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second

	catalogLoadDeadline time.Duration = time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run loads the configuration and the catalogs, then serves until SIGINT or
// SIGTERM. SIGHUP reloads the catalogs in between.
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	exports, err := lrucache.New(config.Global.Export.CacheSize, config.Global.Export.Compress)
	if err != nil {
		return fmt.Errorf("failed to create export cache: %w", err)
	}

	mux := router.NewRouter()
	mux.DefineRoutes(&routes.Handlers{Registry: reg, Exports: exports})
	mux.RegisterMiddleware(reg)

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := listen(ctx, listenOptionsFromConfig())
	if err != nil {
		return err
	}

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- server.Serve(listener)
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	defer signal.Stop(hup)

	for done := false; !done; {
		select {
		case <-hup:
			reloadCatalogs(reg, exports)
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}

			done = true
		case <-ctx.Done():
			log.Info().Msg("Shutdown signal received, shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
			err := server.Shutdown(shutdownCtx)

			cancel()

			if err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			done = true
		}
	}

	if config.Global.Limiter.Enabled {
		limiter.Fini()
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}

// loadRegistry builds the catalog registry from the configuration and loads
// every catalog once.
func loadRegistry() (*registry.Registry, error) {
	cfg := config.Global.Catalog

	reg, err := registry.New(registry.Options{
		Directory:         cfg.Directory,
		Pattern:           cfg.Pattern,
		Compressed:        cfg.Compressed,
		BaseLocale:        cfg.BaseLocale,
		StrictMissingKeys: cfg.StrictMissingKeys,
		AmbiguityPolicy:   cfg.AmbiguityPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog registry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), catalogLoadDeadline)
	defer cancel()

	if err := reg.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}

	return reg, nil
}

// reloadCatalogs rescans the catalogs and drops exports of older generations.
// On failure the loaded catalogs stay in service.
func reloadCatalogs(reg *registry.Registry, exports *lrucache.Cache) {
	ctx, cancel := context.WithTimeout(context.Background(), catalogLoadDeadline)
	defer cancel()

	if err := reg.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reload catalogs")

		return
	}

	exports.Purge()
}
