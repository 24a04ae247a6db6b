// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/store"
)

const defaultSeedTimeout = 30 * time.Second

type seedConfig struct {
	username     string
	secret       string
	capabilities []string
	timeout      time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an initial user with capabilities",
		Long: `Migrates the database and registers an initial user with the given
capability labels. Idempotent: an already-registered username is left as
is, though requested capabilities are still granted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "admin", "username to register")
	cmd.Flags().StringVar(&cfg.secret, "secret", "", "secret for the user (required)")
	cmd.Flags().StringSliceVar(&cfg.capabilities, "capability", []string{"admin"}, "capability labels to grant")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations")
	_ = cmd.MarkFlagRequired("secret") //nolint:errcheck // flag is defined just above

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.NewPool(ctx, cfg.StorageURI)
	if err != nil {
		return err
	}
	defer pool.Close()

	// The database may still be booting when seed runs from a compose
	// hook; wait for it instead of failing outright.
	if err := store.WaitReady(ctx, pool, seedCfg.timeout); err != nil {
		return err
	}

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(cfg.StorageURI)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return err
	}
	_ = migrator.Close() //nolint:errcheck // schema is applied at this point

	backend := postgres.NewBackend(pool)
	core, err := auth.New(backend, auth.WithSessionTTL(cfg.SessionTTL))
	if err != nil {
		return err
	}

	if err := core.Register(ctx, seedCfg.username, seedCfg.secret); err != nil {
		if !errors.Is(err, auth.ErrRegistrationFailed) {
			return err
		}
		existing, findErr := backend.FindUserByUsername(ctx, seedCfg.username)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			// Not a duplicate; the original failure stands.
			return err
		}
		cmd.Printf("User %q already exists, skipping registration\n", seedCfg.username)
		slog.Info("seed user already present", "username", seedCfg.username)
	} else {
		cmd.Printf("Registered user %q\n", seedCfg.username)
	}

	user, err := backend.FindUserByUsername(ctx, seedCfg.username)
	if err != nil {
		return err
	}
	if user == nil {
		return oops.Code("SEED_FAILED").Errorf("user %q not found after registration", seedCfg.username)
	}

	for _, label := range seedCfg.capabilities {
		if err := backend.GrantCapability(ctx, user.ID, label); err != nil {
			return err
		}
	}
	cmd.Printf("Granted capabilities: %v\n", seedCfg.capabilities)

	cmd.Println("Seeding complete")
	return nil
}
