// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gatewarden CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatewarden",
		Short: "Gatewarden - credential, session, and capability service",
		Long: `Gatewarden verifies credentials against argon2id hashes, manages
opaque session tokens, and answers capability checks, all backed by
PostgreSQL.`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path")
	pf.String("storage-uri", "", "PostgreSQL connection string")
	pf.Duration("session-ttl", 0, "lifetime of newly issued sessions")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (json, text)")
	pf.String("metrics-addr", "", "observability server listen address")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewGencertCmd())

	return cmd
}

// loadConfig resolves configuration for a subcommand and installs the
// default logger. When --config is not given, the XDG config file is
// used if one exists.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		path = xdg.ConfigFile()
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	logging.SetDefault("gatewarden", version, cfg.LogFormat, cfg.LogLevel)
	return cfg, nil
}
