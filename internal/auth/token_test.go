// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/auth"
)

func TestGenerateSessionToken(t *testing.T) {
	token, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	raw, err := hex.DecodeString(string(token))
	require.NoError(t, err, "token must be hex")
	assert.Len(t, raw, auth.SessionTokenBytes)

	seen := map[auth.SessionToken]bool{token: true}
	for i := 0; i < 100; i++ {
		next, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		assert.False(t, seen[next], "tokens must not repeat")
		seen[next] = true
	}
}
