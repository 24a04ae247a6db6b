// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/store"
)

// NewUserCmd creates the user subcommand tree.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage and inspect users",
	}

	cmd.AddCommand(newUserRegisterCmd())
	cmd.AddCommand(newUserVerifyCmd())

	return cmd
}

func newUserRegisterCmd() *cobra.Command {
	var username, secret string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
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

			core, err := auth.New(postgres.NewBackend(pool), auth.WithSessionTTL(cfg.SessionTTL))
			if err != nil {
				return err
			}

			if err := core.Register(cmd.Context(), username, secret); err != nil {
				return err
			}
			cmd.Printf("Registered user %q\n", strings.ToLower(username))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username to register (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "secret for the user (required)")
	_ = cmd.MarkFlagRequired("username") //nolint:errcheck // flag is defined just above
	_ = cmd.MarkFlagRequired("secret")   //nolint:errcheck // flag is defined just above

	return cmd
}

func newUserVerifyCmd() *cobra.Command {
	var (
		username     string
		secret       string
		capabilities []string
		issueSession bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify credentials and optionally check capabilities",
		Long: `Verifies a username/secret pair against stored hashes. With
--capability, additionally requires the verified identity to hold every
given label. With --issue-session, issues a session token and validates
it back.`,
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

			core, err := auth.New(postgres.NewBackend(pool), auth.WithSessionTTL(cfg.SessionTTL))
			if err != nil {
				return err
			}

			identity, err := core.AuthenticateCreds(cmd.Context(), username, secret)
			if err != nil {
				return err
			}
			cmd.Printf("Verified %q (user %s)\n", identity.User().Username, identity.User().ID)
			cmd.Printf("Capabilities: %s\n", identity.Capabilities())

			if len(capabilities) > 0 {
				if err := auth.Authorize(identity, auth.NewCapabilitySet(capabilities...)); err != nil {
					return err
				}
				cmd.Printf("Holds all required capabilities: %v\n", capabilities)
			}

			if issueSession {
				token, err := core.IssueSession(cmd.Context(), identity, core.SessionTTL())
				if err != nil {
					return err
				}
				if _, err := core.ValidateSession(cmd.Context(), token); err != nil {
					return err
				}
				cmd.Printf("Session token (valid %s): %s\n", core.SessionTTL(), token)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username to verify (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "secret to verify (required)")
	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "capability labels the identity must hold")
	cmd.Flags().BoolVar(&issueSession, "issue-session", false, "issue and validate a session token")
	_ = cmd.MarkFlagRequired("username") //nolint:errcheck // flag is defined just above
	_ = cmd.MarkFlagRequired("secret")   //nolint:errcheck // flag is defined just above

	return cmd
}
