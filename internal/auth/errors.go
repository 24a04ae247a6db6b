// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import "errors"

// Failure kinds for the authentication core. Callers match these with
// errors.Is; the oops codes attached at the return sites carry the
// diagnostic context for logging and metrics.
//
// ErrCredentialsInvalid deliberately covers both "unknown username" and
// "wrong secret" so the two cases cannot be told apart from the error.
var (
	// ErrCredentialsInvalid means the username/secret pair did not verify.
	ErrCredentialsInvalid = errors.New("invalid username or password")

	// ErrSessionInvalid means the presented token matches no stored session.
	ErrSessionInvalid = errors.New("invalid session token")

	// ErrSessionExpired means the session exists but is past its expiry.
	// Distinguished from ErrSessionInvalid for diagnostics only; any
	// externally observable behavior must treat both as "unauthenticated".
	ErrSessionExpired = errors.New("session expired")

	// ErrCapabilityDenied means the identity lacks a required capability.
	ErrCapabilityDenied = errors.New("capability denied")

	// ErrBackendFailure covers every storage or connectivity fault. The
	// underlying cause is preserved in the wrap chain for logging but is
	// never part of a user-visible response.
	ErrBackendFailure = errors.New("backend failure")

	// ErrRegistrationFailed means a user could not be registered. Covers
	// duplicate usernames and storage faults uniformly.
	ErrRegistrationFailed = errors.New("registration failed")
)

// ErrDuplicateUser is returned by Backend implementations when a username
// is already taken. The core folds it into ErrRegistrationFailed before it
// reaches a caller.
var ErrDuplicateUser = errors.New("username already registered")
