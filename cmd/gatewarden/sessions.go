// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/observability"
	"github.com/gatewarden/gatewarden/internal/store"
)

// NewSessionsCmd creates the sessions subcommand tree.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and clean up stored sessions",
	}

	cmd.AddCommand(newSessionsListExpiredCmd())
	cmd.AddCommand(newSessionsReapCmd())

	return cmd
}

func newSessionsListExpiredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-expired",
		Short: "List expired sessions that have not been reaped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pool, err := store.NewPool(cmd.Context(), cfg.StorageURI)
			if err != nil {
				return err
			}
			defer pool.Close()

			sessions, err := postgres.NewBackend(pool).ListExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}

			if len(sessions) == 0 {
				cmd.Println("No expired sessions")
				return nil
			}
			for _, s := range sessions {
				cmd.Printf("%s\tuser=%s\texpired=%s\n", s.Token, s.UserID, s.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newSessionsReapCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Delete expired sessions",
		Long: `Deletes expired session rows. With --interval, runs as a daemon
reaping on a fixed period and serving metrics and health probes on the
configured metrics address; without it, reaps once and exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pool, err := store.NewPool(cmd.Context(), cfg.StorageURI)
			if err != nil {
				return err
			}
			defer pool.Close()

			backend := postgres.NewBackend(pool)
			if interval <= 0 {
				return reapOnce(cmd, backend)
			}
			return reapLoop(cmd.Context(), cfg, pool, backend, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "reap period; 0 reaps once and exits")
	return cmd
}

func reapOnce(cmd *cobra.Command, reaper auth.SessionReaper) error {
	reaped, err := reaper.ReapExpired(cmd.Context())
	if err != nil {
		return err
	}
	auth.SessionsReaped.Add(float64(reaped))
	cmd.Printf("Reaped %d expired session(s)\n", reaped)
	return nil
}

// reapLoop reaps on a ticker until ctx is cancelled. Individual reap
// failures are logged and retried next tick; only server startup errors
// abort the loop.
func reapLoop(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, reaper auth.SessionReaper, interval time.Duration) error {
	srv := observability.NewServer(cfg.MetricsAddr, func(ctx context.Context) bool {
		return pool.Ping(ctx) == nil
	})
	srvErr, err := srv.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stopErr := srv.Stop(shutdownCtx); stopErr != nil {
			slog.Error("failed to stop observability server", "error", stopErr)
		}
	}()

	slog.Info("session reaper started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopping")
			return nil
		case err := <-srvErr:
			return err
		case <-ticker.C:
			reaped, err := reaper.ReapExpired(ctx)
			if err != nil {
				slog.Error("reap pass failed", "error", err)
				continue
			}
			auth.SessionsReaped.Add(float64(reaped))
			if reaped > 0 {
				slog.Info("reaped expired sessions", "count", reaped)
			}
		}
	}
}
