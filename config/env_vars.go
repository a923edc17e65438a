// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var errUnsupportedFieldType = errors.New("unsupported field type")

// envField is a struct field bound to an environment variable through its
// env tag, for example `env:"TSCAT_PORT,overwrite"`.
type envField struct {
	name      string
	overwrite bool
	value     reflect.Value
}

// envFields yields the tagged fields of the struct v points to, descending
// into untagged struct fields.
func envFields(v reflect.Value) iter.Seq[envField] {
	return func(yield func(envField) bool) {
		walkEnvFields(v.Elem(), yield)
	}
}

func walkEnvFields(v reflect.Value, yield func(envField) bool) bool {
	for i := range v.NumField() {
		field, value := v.Type().Field(i), v.Field(i)
		if !field.IsExported() {
			continue
		}

		tag, ok := field.Tag.Lookup("env")
		if !ok {
			if value.Kind() == reflect.Struct && !walkEnvFields(value, yield) {
				return false
			}

			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if !yield(envField{name: name, overwrite: opts == "overwrite", value: value}) {
			return false
		}
	}

	return true
}

// readEnv copies the environment variables named by cfg's env tags into cfg.
//
// A variable only replaces a value already set from the YAML file when its
// tag carries the overwrite option.
func readEnv(cfg *ServerConfig) error {
	for f := range envFields(reflect.ValueOf(cfg)) {
		raw, ok := os.LookupEnv(f.name)
		if !ok || (!f.overwrite && !f.value.IsZero()) {
			continue
		}

		if err := setFromEnv(f.value, raw); err != nil {
			return fmt.Errorf("%s=%q: %w", f.name, raw, err)
		}
	}

	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

func setFromEnv(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		v.SetBool(b)
	case reflect.Int, reflect.Int64:
		if v.Type() == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}

			v.SetInt(int64(d))

			return nil
		}

		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}

		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}

		v.SetFloat(f)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: %s", errUnsupportedFieldType, v.Type())
		}

		var items []string

		for item := range strings.SplitSeq(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}

		v.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFieldType, v.Type())
	}

	return nil
}

// useDotEnv exports the variables of the first .env file found in the
// working directory or next to the binary. Variables already present in the
// environment win over the file.
func useDotEnv() error {
	var dirs []string

	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")

		vars, err := godotenv.Read(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		applied := 0

		for key, value := range vars {
			if _, set := os.LookupEnv(key); set {
				continue
			}

			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to export %s from %s: %w", key, path, err)
			}

			applied++
		}

		log.Info().
			Str("path", path).
			Int("applied", applied).
			Int("skipped", len(vars)-applied).
			Msg("Loaded .env file")

		return nil
	}

	log.Debug().Msg("No .env file found, skipping")

	return nil
}
