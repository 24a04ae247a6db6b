// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// DefaultSessionTTL is the session lifetime used when the surrounding
// application does not configure one.
const DefaultSessionTTL = 5 * time.Minute

// Secret length bounds for registration.
const (
	MinSecretLength = 12
	MaxSecretLength = 256
)

// MaxUsernameLength bounds usernames at registration.
const MaxUsernameLength = 64

// usernameRegex matches lowercased usernames: ASCII letters and digits only.
var usernameRegex = regexp.MustCompile(`^[a-z0-9]+$`)

// AccessControl is the authentication and authorization core. It verifies
// credentials, manages session lifecycle, and produces Identity values —
// the only path by which downstream code can obtain a verified user.
//
// AccessControl holds no mutable state of its own; all state lives behind
// the Backend, so every method is safe for concurrent use and each call
// re-verifies against current Backend data.
type AccessControl struct {
	backend Backend
	hasher  PasswordHasher
	ttl     time.Duration
	logger  *slog.Logger
	nowTime func() time.Time
}

// Option configures an AccessControl.
type Option func(*AccessControl)

// WithHasher replaces the default argon2id hasher.
func WithHasher(hasher PasswordHasher) Option {
	return func(ac *AccessControl) {
		ac.hasher = hasher
	}
}

// WithSessionTTL sets the default session lifetime reported by SessionTTL.
func WithSessionTTL(ttl time.Duration) Option {
	return func(ac *AccessControl) {
		ac.ttl = ttl
	}
}

// WithLogger sets the logger for internal diagnostics. Log records may
// name the internal failure kind; they never reach response content.
func WithLogger(logger *slog.Logger) Option {
	return func(ac *AccessControl) {
		ac.logger = logger
	}
}

// WithNowTime sets the clock (for testing).
func WithNowTime(now func() time.Time) Option {
	return func(ac *AccessControl) {
		ac.nowTime = now
	}
}

// New creates an AccessControl over the given Backend.
func New(backend Backend, options ...Option) (*AccessControl, error) {
	if backend == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("backend is required")
	}

	ac := &AccessControl{
		backend: backend,
		hasher:  NewArgon2idHasher(),
		ttl:     DefaultSessionTTL,
		logger:  slog.Default(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(ac)
	}
	if ac.hasher == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("hasher is required")
	}
	if ac.logger == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("logger is required")
	}
	return ac, nil
}

// SessionTTL returns the configured default session lifetime.
func (ac *AccessControl) SessionTTL() time.Duration {
	return ac.ttl
}

// AuthenticateCreds verifies a username/secret pair and returns a verified
// Identity carrying the user's capability snapshot.
//
// Unknown username and wrong secret produce the identical
// ErrCredentialsInvalid: when the user does not exist, a dummy hash is
// still verified so both paths burn comparable argon2 work and neither
// error content nor timing reveals which case occurred.
func (ac *AccessControl) AuthenticateCreds(ctx context.Context, username, secret string) (Identity, error) {
	start := ac.nowTime()
	identity, err := ac.authenticateCreds(ctx, username, secret)
	observeVerification(ac.nowTime().Sub(start), err)
	return identity, err
}

func (ac *AccessControl) authenticateCreds(ctx context.Context, username, secret string) (Identity, error) {
	// Usernames are stored lowercased; fold here so lookups are
	// case-insensitive without a case-folding index.
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := ac.backend.FindUserByUsername(ctx, username)
	if err != nil {
		return Identity{}, ac.backendFailure("find user by username", err)
	}

	if user == nil {
		// Burn the same argon2 work as the wrong-secret path so the
		// absent-user case is not distinguishable by timing.
		_, _ = ac.hasher.Verify(secret, dummyPasswordHash) //nolint:errcheck // result is discarded on purpose
		return Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrCredentialsInvalid)
	}

	valid, verifyErr := ac.hasher.Verify(secret, user.PasswordHash)
	if verifyErr != nil {
		// A stored hash that cannot be parsed is an internal fault, but
		// surfacing it would mark the account as existing. Log and
		// collapse to the uniform error.
		ac.logger.Warn("stored password hash is unverifiable",
			"user_id", user.ID.String(), "error", verifyErr)
		return Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrCredentialsInvalid)
	}
	if !valid {
		return Identity{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrCredentialsInvalid)
	}

	capabilities, err := ac.backend.FindCapabilities(ctx, user.ID)
	if err != nil {
		return Identity{}, ac.backendFailure("find capabilities", err)
	}

	return newIdentity(*user, capabilities, ac.nowTime()), nil
}

// Register stores a new user. The username is lowercased and must be
// ASCII alphanumeric; the secret must be MinSecretLength to
// MaxSecretLength characters. Duplicate usernames and storage faults both
// collapse to ErrRegistrationFailed so registration cannot be used to
// probe which usernames exist.
func (ac *AccessControl) Register(ctx context.Context, username, secret string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(username) > MaxUsernameLength || !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must be 1-%d alphanumeric characters", MaxUsernameLength)
	}
	if n := utf8.RuneCountInString(secret); n < MinSecretLength || n > MaxSecretLength {
		return oops.Code("AUTH_INVALID_SECRET").
			Errorf("secret must be %d to %d characters", MinSecretLength, MaxSecretLength)
	}

	hash, err := ac.hasher.Hash(secret)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	if _, err := ac.backend.RegisterUser(ctx, username, hash); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			ac.logger.Debug("registration rejected: duplicate username")
			return oops.Code("AUTH_REGISTRATION_FAILED").Wrap(ErrRegistrationFailed)
		}
		ac.logger.Warn("registration failed", "error", err)
		return oops.Code("AUTH_REGISTRATION_FAILED").
			Wrap(errors.Join(ErrRegistrationFailed, ErrBackendFailure))
	}
	return nil
}

// IssueSession creates a session for a verified identity and returns the
// opaque token. The Backend generates the token and persists it with
// expiry now+ttl in one atomic operation. A zero ttl issues a session
// that is already expired; callers normally pass SessionTTL().
//
// Transport of the token (HttpOnly/Secure cookie, header) is the calling
// middleware's concern.
func (ac *AccessControl) IssueSession(ctx context.Context, identity Identity, ttl time.Duration) (SessionToken, error) {
	if !identity.Verified() {
		return "", oops.Code("IDENTITY_UNVERIFIED").Errorf("identity has not been verified")
	}

	token, err := ac.backend.CreateSession(ctx, identity.User().ID, ttl)
	if err != nil {
		return "", ac.backendFailure("create session", err)
	}
	recordSessionIssued()
	return token, nil
}

// ValidateSession resolves a token to a verified Identity. Liveness is
// re-evaluated on every call: a token absent from the Backend yields
// ErrSessionInvalid, a present-but-expired one ErrSessionExpired. The two
// are distinct for diagnostics only; callers must map both to the same
// unauthenticated outcome.
func (ac *AccessControl) ValidateSession(ctx context.Context, token SessionToken) (Identity, error) {
	if token == "" {
		return Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	}

	session, err := ac.backend.FindSession(ctx, token)
	if err != nil {
		return Identity{}, ac.backendFailure("find session", err)
	}
	if session == nil {
		return Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	}

	if !session.ExpiresAt.After(ac.nowTime()) {
		return Identity{}, oops.Code("SESSION_EXPIRED").
			With("expired_at", session.ExpiresAt).
			Wrap(ErrSessionExpired)
	}

	user, err := ac.backend.FindUserByID(ctx, session.UserID)
	if err != nil {
		return Identity{}, ac.backendFailure("find session user", err)
	}
	if user == nil {
		// Session row outlived its user; treat the token as dead.
		ac.logger.Warn("session references missing user", "user_id", session.UserID.String())
		return Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrSessionInvalid)
	}

	capabilities, err := ac.backend.FindCapabilities(ctx, user.ID)
	if err != nil {
		return Identity{}, ac.backendFailure("find capabilities", err)
	}

	return newIdentity(*user, capabilities, ac.nowTime()), nil
}

// InvalidateSession deletes a session. Idempotent: invalidating a token
// that no longer exists (or never did) succeeds.
func (ac *AccessControl) InvalidateSession(ctx context.Context, token SessionToken) error {
	if token == "" {
		return nil
	}
	if err := ac.backend.DeleteSession(ctx, token); err != nil {
		return ac.backendFailure("delete session", err)
	}
	return nil
}

// backendFailure collapses any Backend error into the opaque
// ErrBackendFailure kind. The cause stays in the wrap chain for logging
// but must never reach response content.
func (ac *AccessControl) backendFailure(operation string, err error) error {
	ac.logger.Error("backend operation failed", "operation", operation, "error", err)
	return oops.Code("BACKEND_FAILURE").
		With("operation", operation).
		Wrap(errors.Join(ErrBackendFailure, err))
}
