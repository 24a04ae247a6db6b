// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/samber/oops"
)

// SessionTokenBytes is the entropy of a session token: 256 bits, double
// the OWASP minimum for session identifiers.
const SessionTokenBytes = 32

// GenerateSessionToken returns a cryptographically random token, hex
// encoded. Backends use it when creating sessions; collision probability
// at 256 bits is negligible, so uniqueness is enforced only by the
// storage layer's primary key.
func GenerateSessionToken() (SessionToken, error) {
	raw := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return SessionToken(hex.EncodeToString(raw)), nil
}
