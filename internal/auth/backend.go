// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionToken is the opaque token handed to a client after a successful
// authentication. How it travels (cookie, header) is the transport's
// concern; the core only issues and validates it.
type SessionToken string

// UserRecord is an identity row as the Backend stores it. The core reads
// these, it never writes them except through RegisterUser.
type UserRecord struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	RegisteredAt time.Time
}

// SessionRecord is a stored session: one token bound to one user with an
// absolute expiry. A session is live iff now is before ExpiresAt; liveness
// is evaluated at read time on every validation, never cached.
type SessionRecord struct {
	Token     SessionToken
	UserID    ulid.ULID
	ExpiresAt time.Time
}

// Backend is the storage capability the core depends on. Implementations
// own all persistence; the core holds no state between calls.
//
// Absence is a valid outcome, not a failure: the Find methods return
// (nil, nil) when the row does not exist. Any non-nil error is treated by
// the core as a single opaque backend failure, whatever its cause; the
// core never retries and never surfaces the cause to callers.
//
// Every method takes a context and must honor its cancellation. Backends
// must not leave partial session state behind when a CreateSession call is
// cancelled mid-flight.
type Backend interface {
	// FindUserByUsername returns the user with the given username, or
	// (nil, nil) when no such user exists.
	FindUserByUsername(ctx context.Context, username string) (*UserRecord, error)

	// FindUserByID returns the user with the given ID, or (nil, nil).
	FindUserByID(ctx context.Context, id ulid.ULID) (*UserRecord, error)

	// FindCapabilities returns the capability labels granted to the user.
	// An unknown user yields an empty set, not an error.
	FindCapabilities(ctx context.Context, userID ulid.ULID) (CapabilitySet, error)

	// CreateSession generates an unguessable token and persists it bound
	// to the user with expiry now+ttl, atomically. Token uniqueness is the
	// implementation's invariant; the core assumes it and does no locking.
	CreateSession(ctx context.Context, userID ulid.ULID, ttl time.Duration) (SessionToken, error)

	// FindSession returns the session for the token, or (nil, nil). The
	// Backend returns expired rows as-is; expiry is the core's call.
	FindSession(ctx context.Context, token SessionToken) (*SessionRecord, error)

	// DeleteSession removes the session. Deleting an absent session is
	// not an error.
	DeleteSession(ctx context.Context, token SessionToken) error

	// RegisterUser stores a new user with an already-hashed secret.
	// Returns ErrDuplicateUser when the username is taken.
	RegisterUser(ctx context.Context, username, passwordHash string) (*UserRecord, error)
}

// SessionReaper deletes sessions past their expiry. Reaping is external
// housekeeping: the core exposes the hook but never schedules it, since an
// expired row is already unusable through ValidateSession.
type SessionReaper interface {
	// ReapExpired removes every session whose expiry has passed and
	// returns how many rows went away.
	ReapExpired(ctx context.Context) (int64, error)
}
