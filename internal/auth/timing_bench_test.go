// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/authtest"
)

// These two benchmarks should report comparable per-op times: the
// absent-user path verifies against a dummy hash so it burns the same
// argon2 work as a real mismatch. A large gap between them means the
// enumeration mitigation has regressed. Both use the production hash
// parameters on purpose.
//
// Compare with: go test -bench=BenchmarkAuthenticate -benchtime=10x ./internal/auth

func benchmarkCore(b *testing.B) *auth.AccessControl {
	b.Helper()
	hasher := auth.NewArgon2idHasher()
	hash, err := hasher.Hash("correct-horse-battery-staple")
	if err != nil {
		b.Fatal(err)
	}

	backend := authtest.NewBackend()
	backend.AddUser("alice", hash)

	ac, err := auth.New(backend, auth.WithHasher(hasher))
	if err != nil {
		b.Fatal(err)
	}
	return ac
}

func BenchmarkAuthenticateWrongSecret(b *testing.B) {
	ac := benchmarkCore(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ac.AuthenticateCreds(ctx, "alice", "not-the-secret")
	}
}

func BenchmarkAuthenticateUnknownUser(b *testing.B) {
	ac := benchmarkCore(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ac.AuthenticateCreds(ctx, "nosuchuser", "not-the-secret")
	}
}
