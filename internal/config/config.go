// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package config loads runtime configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the runtime configuration.
type Config struct {
	// StorageURI is the PostgreSQL connection string.
	StorageURI string `koanf:"storage_uri"`

	// SessionTTL is the lifetime of newly issued sessions.
	SessionTTL time.Duration `koanf:"session_ttl"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// MetricsAddr is the observability server listen address.
	MetricsAddr string `koanf:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StorageURI:  "postgres://localhost:5432/gatewarden?sslmode=disable",
		SessionTTL:  5 * time.Minute,
		LogLevel:    "info",
		LogFormat:   "json",
		MetricsAddr: ":9100",
	}
}

// Load builds a Config from defaults, then the YAML file at path (when
// path is non-empty), then any changed flags. Flag names use dashes and
// map to the underscored config keys.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		// Only flags the user actually set participate; returning an empty
		// key tells posflag to skip the flag, so defaults like "" never
		// clobber file values.
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			if f := flags.Lookup(key); f == nil || !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StorageURI == "" {
		return oops.Code("CONFIG_INVALID").Errorf("storage_uri must not be empty")
	}
	if c.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}
