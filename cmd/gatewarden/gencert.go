// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/tlsgen"
	"github.com/gatewarden/gatewarden/internal/xdg"
)

// NewGencertCmd creates the gencert subcommand.
func NewGencertCmd() *cobra.Command {
	var (
		dir   string
		hosts []string
	)

	cmd := &cobra.Command{
		Use:   "gencert",
		Short: "Generate a self-signed TLS keypair",
		Long: `Generates a self-signed TLS certificate and key for local and test
deployments, written as server.crt and server.key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := tlsgen.GenerateSelfSigned(hosts...)
			if err != nil {
				return err
			}
			if err := kp.Save(dir); err != nil {
				return err
			}
			cmd.Printf("Wrote server.crt and server.key to %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", xdg.CertsDir(), "output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "additional DNS names or IPs for the certificate")

	return cmd
}
