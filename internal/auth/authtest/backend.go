// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package authtest provides an in-memory Backend for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// Backend is an in-memory auth.Backend. Safe for concurrent use. The
// zero value is not usable; create one with NewBackend.
type Backend struct {
	mu       sync.Mutex
	byName   map[string]auth.UserRecord
	byID     map[ulid.ULID]auth.UserRecord
	caps     map[ulid.ULID]auth.CapabilitySet
	sessions map[auth.SessionToken]auth.SessionRecord

	// FailWith, when non-nil, is returned by every Backend method.
	// Simulates a storage outage.
	FailWith error

	// Now is the clock used for session expiry. Defaults to time.Now.
	Now func() time.Time
}

// NewBackend creates an empty in-memory Backend.
func NewBackend() *Backend {
	return &Backend{
		byName:   make(map[string]auth.UserRecord),
		byID:     make(map[ulid.ULID]auth.UserRecord),
		caps:     make(map[ulid.ULID]auth.CapabilitySet),
		sessions: make(map[auth.SessionToken]auth.SessionRecord),
		Now:      time.Now,
	}
}

// AddUser stores a user with the given already-hashed secret and
// capability labels, bypassing registration rules. Returns the record.
func (b *Backend) AddUser(username, passwordHash string, capabilities ...string) auth.UserRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	user := auth.UserRecord{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		RegisteredAt: b.Now(),
	}
	b.byName[username] = user
	b.byID[user.ID] = user
	b.caps[user.ID] = auth.NewCapabilitySet(capabilities...)
	return user
}

// GrantCapability adds a capability label to an existing user.
func (b *Backend) GrantCapability(userID ulid.ULID, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.caps[userID] == nil {
		b.caps[userID] = auth.CapabilitySet{}
	}
	b.caps[userID][label] = struct{}{}
}

// SessionCount returns the number of stored sessions.
func (b *Backend) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// ExpireSession rewrites a session's expiry so it is already past.
func (b *Backend) ExpireSession(token auth.SessionToken) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[token]; ok {
		s.ExpiresAt = b.Now().Add(-time.Minute)
		b.sessions[token] = s
	}
}

// FindUserByUsername implements auth.Backend.
func (b *Backend) FindUserByUsername(_ context.Context, username string) (*auth.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return nil, b.FailWith
	}
	user, ok := b.byName[username]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindUserByID implements auth.Backend.
func (b *Backend) FindUserByID(_ context.Context, id ulid.ULID) (*auth.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return nil, b.FailWith
	}
	user, ok := b.byID[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindCapabilities implements auth.Backend.
func (b *Backend) FindCapabilities(_ context.Context, userID ulid.ULID) (auth.CapabilitySet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return nil, b.FailWith
	}
	set := auth.CapabilitySet{}
	for label := range b.caps[userID] {
		set[label] = struct{}{}
	}
	return set, nil
}

// CreateSession implements auth.Backend.
func (b *Backend) CreateSession(_ context.Context, userID ulid.ULID, ttl time.Duration) (auth.SessionToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return "", b.FailWith
	}
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}
	b.sessions[token] = auth.SessionRecord{
		Token:     token,
		UserID:    userID,
		ExpiresAt: b.Now().Add(ttl),
	}
	return token, nil
}

// FindSession implements auth.Backend. Expired rows are returned as-is;
// expiry is the core's call.
func (b *Backend) FindSession(_ context.Context, token auth.SessionToken) (*auth.SessionRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return nil, b.FailWith
	}
	session, ok := b.sessions[token]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// DeleteSession implements auth.Backend. Idempotent.
func (b *Backend) DeleteSession(_ context.Context, token auth.SessionToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return b.FailWith
	}
	delete(b.sessions, token)
	return nil
}

// RegisterUser implements auth.Backend.
func (b *Backend) RegisterUser(_ context.Context, username, passwordHash string) (*auth.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return nil, b.FailWith
	}
	if _, exists := b.byName[username]; exists {
		return nil, auth.ErrDuplicateUser
	}
	user := auth.UserRecord{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		RegisteredAt: b.Now(),
	}
	b.byName[username] = user
	b.byID[user.ID] = user
	b.caps[user.ID] = auth.CapabilitySet{}
	return &user, nil
}

// ReapExpired implements auth.SessionReaper.
func (b *Backend) ReapExpired(_ context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return 0, b.FailWith
	}
	var reaped int64
	now := b.Now()
	for token, session := range b.sessions {
		if !session.ExpiresAt.After(now) {
			delete(b.sessions, token)
			reaped++
		}
	}
	return reaped, nil
}

// Compile-time interface checks.
var (
	_ auth.Backend       = (*Backend)(nil)
	_ auth.SessionReaper = (*Backend)(nil)
)
