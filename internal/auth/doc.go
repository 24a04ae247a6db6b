// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package auth is the authentication and authorization core of
// Gatewarden: credential verification, opaque-session lifecycle, and
// capability-based authorization, independent of storage and transport.
//
// The central invariant is the Identity typestate: an Identity can only
// be produced by the success paths of AuthenticateCreds and
// ValidateSession, and every protected operation requires one as a
// parameter. Code that never obtained an Identity cannot act as an
// authenticated user, by construction rather than by convention.
//
// All persistence lives behind the Backend interface; the core is
// stateless between calls and re-verifies on every request.
package auth
