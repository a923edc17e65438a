// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/core/idgen"
)

// Global exposes the server configuration.
var Global ServerConfig

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"TSCAT_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"TSCAT_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"TSCAT_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"TSCAT_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"TSCAT_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"TSCAT_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
	} `yaml:"basic"`

	Catalog struct {
		Directory  string `env:"TSCAT_CATALOG_DIR,overwrite" yaml:"directory"`
		Pattern    string `env:"TSCAT_CATALOG_PATTERN,overwrite" yaml:"pattern"`
		BaseLocale string `env:"TSCAT_BASE_LOCALE,overwrite" yaml:"baseLocale"`

		// Strict mode for missing keys.
		//
		// When enabled, missing keys are logged (deduplicated per locale+key) and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"TSCAT_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`

		RawAmbiguityPolicy string                  `env:"TSCAT_AMBIGUITY_POLICY,overwrite" yaml:"ambiguityPolicy"`
		AmbiguityPolicy    catalog.AmbiguityPolicy `yaml:"-"`

		// Compressed also loads catalogs stored as .ts.gz and .ts.zst.
		Compressed  bool `env:"TSCAT_COMPRESSED_CATALOGS,overwrite" yaml:"compressed"`
		AllowReload bool `env:"TSCAT_ALLOW_RELOAD,overwrite" yaml:"allowReload"`
	} `yaml:"catalog"`

	Export struct {
		CacheSize int  `env:"TSCAT_EXPORT_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		Compress  bool `env:"TSCAT_EXPORT_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"export"`

	HTTPCache struct {
		MaxAge time.Duration `env:"TSCAT_CACHE_CONTROL_MAX_AGE,overwrite" yaml:"cacheControlMaxAge"`
	} `yaml:"httpCache"`

	Instance struct {
		StartingTime string `yaml:"-"`
		ID           string `yaml:"-"`
	} `yaml:"-"`

	Development struct {
		InDevelopment bool `env:"TSCAT_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"TSCAT_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"TSCAT_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"TSCAT_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled       bool     `env:"TSCAT_LIMITER,overwrite" yaml:"enabled"`
		StateFilepath string   `env:"TSCAT_LIMITER_STATE_FILEPATH,overwrite" yaml:"stateFilepath"`
		PassIPs       []string `env:"TSCAT_LIMITER_PASS_IPS,overwrite" yaml:"passList"`
		BlockIPs      []string `env:"TSCAT_LIMITER_BLOCK_IPS,overwrite" yaml:"blockList"`
		FilterLocal   bool     `env:"TSCAT_LIMITER_FILTER_LOCAL,overwrite" yaml:"filterLocal"`
		IPv4Prefix    int      `env:"TSCAT_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix    int      `env:"TSCAT_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`
		Rate          float64  `env:"TSCAT_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst         int      `env:"TSCAT_LIMITER_BURST,overwrite" yaml:"burst"`
	} `yaml:"limiter"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Determine the config file path with the correct precedence:
	// 1. Command-line flag (-config)
	// 2. Environment variable (TSCAT_CONFIGFILE)
	// 3. Default path with fallback check
	if configFlagUserSet {
		configFilePath = parsedConfigFlagValue
	} else if envVar := os.Getenv("TSCAT_CONFIGFILE"); envVar != "" {
		configFilePath = envVar
	} else {
		configFilePath = parsedConfigFlagValue
		// Then, perform a fallback check for "./config.yml".
		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			ymlPath := "./config.yml"
			if _, statErr := os.Stat(ymlPath); statErr == nil {
				configFilePath = ymlPath
			}
		}
	}

	return cfg.load(configFilePath)
}

// load runs every configuration step after the config file path is known.
func (cfg *ServerConfig) load(configFilePath string) error {
	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.ID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	// Heuristically check for containerized environment and warn if host is not a wildcard address.
	if cfg.Basic.UnixSocket == "" && isContainerized() && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a containerized environment but host is not a wildcard address (e.g., '0.0.0.0' or '::'). This may prevent the service from being accessible outside the container.")
	}

	return nil
}

var skippedPathPrefixes = []string{"/healthz"}

// ShouldSkipServerLogging determines if a request should bypass request logging.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	if cfg.Development.InDevelopment {
		return false
	}

	for _, prefix := range skippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// isContainerized checks for common indicators of a containerized environment.
//
// This is a heuristic and may not be 100% accurate.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if _, err := os.Stat("/.containerenv"); err == nil {
		return true
	}

	// #nosec G304 -- We are checking for the existence and content of a well-known system file for heuristics.
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err == nil {
		content := string(cgroup)

		return strings.Contains(content, "docker") ||
			strings.Contains(content, "kubepods") ||
			strings.Contains(content, "containerd") ||
			strings.Contains(content, "lxc") ||
			strings.Contains(content, "crio") ||
			// systemd-nspawn containers
			strings.Contains(content, ".machine")
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
