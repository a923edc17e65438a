// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/catalog"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errInvalidPort                  = errors.New("invalid Basic.Port value")
	errEmptyCatalogDirectory        = errors.New("catalog.directory cannot be empty")
	errInvalidCatalogPattern        = errors.New("invalid catalog.pattern")
	errInvalidBaseLocale            = errors.New("invalid catalog.baseLocale")
	errInvalidAmbiguityPolicy       = errors.New("invalid catalog.ambiguityPolicy")
	errInvalidExportCacheSize       = errors.New("export.cacheSize must be positive")
	errInvalidLogLevel              = errors.New("invalid log.logLevel")
	errInvalidLogFormat             = errors.New("invalid log.logFormat")
	errEmptyStateFilepath           = errors.New("filepath for StateFilepath cannot be empty when limiter is enabled")
	errInvalidLimiterRate           = errors.New("limiter.rate must be positive")
	errInvalidLimiterBurst          = errors.New("limiter.burst must be positive")
	errInvalidIPv4Prefix            = errors.New("IPv4 prefix must be between 0 and 32")
	errInvalidIPv6Prefix            = errors.New("IPv6 prefix must be between 0 and 128")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	if err := cfg.validateCatalog(); err != nil {
		return err
	}

	if cfg.Export.CacheSize <= 0 {
		return errInvalidExportCacheSize
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogFormat, cfg.Log.Format)
	}

	// Skip validating Limiter configuration if it's not enabled
	if !cfg.Limiter.Enabled {
		return nil
	}

	if cfg.Limiter.StateFilepath == "" {
		return errEmptyStateFilepath
	}

	if cfg.Limiter.Rate <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.Burst <= 0 {
		return errInvalidLimiterBurst
	}

	if cfg.Limiter.IPv4Prefix < 0 || cfg.Limiter.IPv4Prefix > 32 {
		return errInvalidIPv4Prefix
	}

	if cfg.Limiter.IPv6Prefix < 0 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidIPv6Prefix
	}

	return nil
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		// Set TCP defaults
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8283"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		if port, err := strconv.Atoi(cfg.Basic.Port); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: %q", errInvalidPort, cfg.Basic.Port)
		}

		return nil
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	switch {
	case cfg.Basic.RawUnixSocketPermissions == "":
		cfg.Basic.UnixSocketPermissions = 0o666
	case fileModeOctalRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
		rawModeUint64, _ := strconv.ParseUint(cfg.Basic.RawUnixSocketPermissions, 8, 32)

		cfg.Basic.UnixSocketPermissions = os.FileMode(rawModeUint64)
	case fileModeStringRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
		mode := os.FileMode(0)

		for i, c := range cfg.Basic.RawUnixSocketPermissions {
			// If permission bit is set
			if c != '-' {
				// Set i-th bit from the end
				const bitsInByte = 8

				mode |= 1 << (bitsInByte - i)
			}
		}

		cfg.Basic.UnixSocketPermissions = mode
	default:
		return errUnixSocketInvalidPermissions
	}

	if u := cfg.Basic.UnixSocketUser; u != "" {
		lookup := user.Lookup
		if digitsRegexp.MatchString(u) {
			lookup = user.LookupId
		}

		if _, err := lookup(u); err != nil {
			return errUnixSocketUserDoesNotExist
		}
	}

	if g := cfg.Basic.UnixSocketGroup; g != "" {
		lookup := user.LookupGroup
		if digitsRegexp.MatchString(g) {
			lookup = user.LookupGroupId
		}

		if _, err := lookup(g); err != nil {
			return errUnixSocketGroupDoesNotExist
		}
	}

	return nil
}

func (cfg *ServerConfig) validateCatalog() error {
	if cfg.Catalog.Directory == "" {
		return errEmptyCatalogDirectory
	}

	if _, err := path.Match(cfg.Catalog.Pattern, ""); err != nil || cfg.Catalog.Pattern == "" {
		return fmt.Errorf("%w: %q", errInvalidCatalogPattern, cfg.Catalog.Pattern)
	}

	if _, err := language.Parse(cfg.Catalog.BaseLocale); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBaseLocale, err)
	}

	policy, err := catalog.ParseAmbiguityPolicy(cfg.Catalog.RawAmbiguityPolicy)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidAmbiguityPolicy, err)
	}

	cfg.Catalog.AmbiguityPolicy = policy

	if _, err := os.Stat(cfg.Catalog.Directory); err != nil {
		// Not fatal: the server starts with source strings only and a reload
		// picks the catalogs up once the directory exists.
		log.Warn().
			Err(err).
			Str("path", cfg.Catalog.Directory).
			Msg("Catalog directory is not accessible")
	}

	return nil
}
