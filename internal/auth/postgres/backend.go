// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package postgres implements auth.Backend on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// DB is the subset of pgxpool.Pool the backend needs. pgxmock's
// PgxPoolIface satisfies it too, so unit tests can inject a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Backend implements auth.Backend and auth.SessionReaper using PostgreSQL.
type Backend struct {
	db  DB
	now func() time.Time
}

// NewBackend creates a Backend over the given pool.
func NewBackend(db DB) *Backend {
	return &Backend{db: db, now: time.Now}
}

// WithClock replaces the backend clock. For tests.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	b.now = now
	return b
}

// FindUserByUsername implements auth.Backend. A missing user is (nil, nil).
func (b *Backend) FindUserByUsername(ctx context.Context, username string) (*auth.UserRecord, error) {
	row := b.db.QueryRow(ctx, `
		SELECT user_id, username, password_hash, registration_date
		FROM users
		WHERE username = $1
	`, username)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			Wrap(err)
	}
	return user, nil
}

// FindUserByID implements auth.Backend. A missing user is (nil, nil).
func (b *Backend) FindUserByID(ctx context.Context, id ulid.ULID) (*auth.UserRecord, error) {
	row := b.db.QueryRow(ctx, `
		SELECT user_id, username, password_hash, registration_date
		FROM users
		WHERE user_id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("user_id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// FindCapabilities implements auth.Backend. A user with no rows gets an
// empty set.
func (b *Backend) FindCapabilities(ctx context.Context, userID ulid.ULID) (auth.CapabilitySet, error) {
	rows, err := b.db.Query(ctx, `
		SELECT label FROM capabilities WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return nil, oops.Code("CAPABILITIES_GET_FAILED").
			With("operation", "get capabilities").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	set := auth.CapabilitySet{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, oops.Code("CAPABILITIES_SCAN_FAILED").
				With("operation", "scan capability row").
				Wrap(err)
		}
		set[label] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CAPABILITIES_ROWS_ERROR").
			With("operation", "iterate capability rows").
			Wrap(err)
	}
	return set, nil
}

// GrantCapability adds a capability label to a user. Granting a label the
// user already holds is a no-op.
func (b *Backend) GrantCapability(ctx context.Context, userID ulid.ULID, label string) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO capabilities (label, user_id)
		VALUES ($1, $2)
		ON CONFLICT (label, user_id) DO NOTHING
	`, label, userID.String())
	if err != nil {
		return oops.Code("CAPABILITY_GRANT_FAILED").
			With("operation", "grant capability").
			With("user_id", userID.String()).
			With("label", label).
			Wrap(err)
	}
	return nil
}

// RevokeCapability removes a capability label from a user. Idempotent.
func (b *Backend) RevokeCapability(ctx context.Context, userID ulid.ULID, label string) error {
	_, err := b.db.Exec(ctx, `
		DELETE FROM capabilities WHERE label = $1 AND user_id = $2
	`, label, userID.String())
	if err != nil {
		return oops.Code("CAPABILITY_REVOKE_FAILED").
			With("operation", "revoke capability").
			With("user_id", userID.String()).
			With("label", label).
			Wrap(err)
	}
	return nil
}

// CreateSession implements auth.Backend. The token is generated here and
// persisted with its expiry in a single insert.
func (b *Backend) CreateSession(ctx context.Context, userID ulid.ULID, ttl time.Duration) (auth.SessionToken, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}

	_, err = b.db.Exec(ctx, `
		INSERT INTO sessions (session_id, user_id, expiration_date)
		VALUES ($1, $2, $3)
	`, string(token), userID.String(), b.now().Add(ttl))
	if err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return token, nil
}

// FindSession implements auth.Backend. Expired rows are returned as-is;
// liveness is the caller's call. A missing session is (nil, nil).
func (b *Backend) FindSession(ctx context.Context, token auth.SessionToken) (*auth.SessionRecord, error) {
	row := b.db.QueryRow(ctx, `
		SELECT session_id, user_id, expiration_date
		FROM sessions
		WHERE session_id = $1
	`, string(token))

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// DeleteSession implements auth.Backend. Deleting an absent token succeeds.
func (b *Backend) DeleteSession(ctx context.Context, token auth.SessionToken) error {
	_, err := b.db.Exec(ctx, `
		DELETE FROM sessions WHERE session_id = $1
	`, string(token))
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// RegisterUser implements auth.Backend. A username collision surfaces as
// auth.ErrDuplicateUser.
func (b *Backend) RegisterUser(ctx context.Context, username, passwordHash string) (*auth.UserRecord, error) {
	user := auth.UserRecord{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		RegisteredAt: b.now(),
	}

	_, err := b.db.Exec(ctx, `
		INSERT INTO users (user_id, username, password_hash, registration_date)
		VALUES ($1, $2, $3, $4)
	`, user.ID.String(), user.Username, user.PasswordHash, user.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_DUPLICATE").Wrap(auth.ErrDuplicateUser)
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return &user, nil
}

// ReapExpired implements auth.SessionReaper: deletes every session whose
// expiry is at or before now and returns the count.
func (b *Backend) ReapExpired(ctx context.Context) (int64, error) {
	tag, err := b.db.Exec(ctx, `
		DELETE FROM sessions WHERE expiration_date <= $1
	`, b.now())
	if err != nil {
		return 0, oops.Code("SESSION_REAP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// ListExpiredSessions returns expired-but-unreaped session rows, oldest
// first. Used by the operator CLI.
func (b *Backend) ListExpiredSessions(ctx context.Context) ([]auth.SessionRecord, error) {
	rows, err := b.db.Query(ctx, `
		SELECT session_id, user_id, expiration_date
		FROM sessions
		WHERE expiration_date <= $1
		ORDER BY expiration_date
	`, b.now())
	if err != nil {
		return nil, oops.Code("SESSION_LIST_EXPIRED_FAILED").
			With("operation", "list expired sessions").
			Wrap(err)
	}
	defer rows.Close()

	var sessions []auth.SessionRecord
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_ROWS_ERROR").
			With("operation", "iterate expired sessions").
			Wrap(err)
	}
	return sessions, nil
}

func scanUser(row pgx.Row) (*auth.UserRecord, error) {
	var (
		idStr        string
		username     string
		passwordHash string
		registeredAt time.Time
	)
	if err := row.Scan(&idStr, &username, &passwordHash, &registeredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers map ErrNoRows to absence
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("user_id", idStr).
			Wrap(err)
	}

	return &auth.UserRecord{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		RegisteredAt: registeredAt,
	}, nil
}

func scanSession(row pgx.Row) (*auth.SessionRecord, error) {
	var (
		token     string
		userIDStr string
		expiresAt time.Time
	)
	if err := row.Scan(&token, &userIDStr, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers map ErrNoRows to absence
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}
	return buildSession(token, userIDStr, expiresAt)
}

func scanSessionRow(rows pgx.Rows) (*auth.SessionRecord, error) {
	var (
		token     string
		userIDStr string
		expiresAt time.Time
	)
	if err := rows.Scan(&token, &userIDStr, &expiresAt); err != nil {
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session row").
			Wrap(err)
	}
	return buildSession(token, userIDStr, expiresAt)
}

func buildSession(token, userIDStr string, expiresAt time.Time) (*auth.SessionRecord, error) {
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").
			With("operation", "parse session user id").
			With("user_id", userIDStr).
			Wrap(err)
	}
	return &auth.SessionRecord{
		Token:     auth.SessionToken(token),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}, nil
}

// Compile-time interface checks.
var (
	_ auth.Backend       = (*Backend)(nil)
	_ auth.SessionReaper = (*Backend)(nil)
)
