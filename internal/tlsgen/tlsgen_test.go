// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package tlsgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSigned(t *testing.T) {
	kp, err := GenerateSelfSigned("auth.internal", "10.0.0.5")
	require.NoError(t, err)

	cert := kp.Certificate
	assert.Contains(t, cert.DNSNames, "localhost")
	assert.Contains(t, cert.DNSNames, "auth.internal")
	require.Len(t, cert.IPAddresses, 2)
	assert.Equal(t, "10.0.0.5", cert.IPAddresses[1].String())
	assert.True(t, cert.NotAfter.After(time.Now().AddDate(0, 11, 0)), "valid for about a year")

	require.NoError(t, cert.VerifyHostname("localhost"))
	require.NoError(t, cert.VerifyHostname("auth.internal"))
}

func TestKeypair_Save(t *testing.T) {
	kp, err := GenerateSelfSigned()
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "certs")
	require.NoError(t, kp.Save(dir))

	// The saved pair must load as a working TLS certificate.
	_, err = tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	require.NoError(t, err)

	keyPEM, err := os.ReadFile(filepath.Join(dir, "server.key"))
	require.NoError(t, err)
	block, _ := pem.Decode(keyPEM)
	require.NotNil(t, block)
	assert.Equal(t, "EC PRIVATE KEY", block.Type)
	_, err = x509.ParseECPrivateKey(block.Bytes)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "server.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
