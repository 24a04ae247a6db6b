// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// Identity is the proof that a request has been authenticated. It pairs a
// user record with the capability snapshot read at verification time.
//
// Identity has no exported fields and no exported constructor: the only
// code that produces a verified Identity is the success path of
// AuthenticateCreds and ValidateSession. Functions that require an
// authenticated caller take an Identity parameter instead of re-checking
// credentials, which makes "forgot the auth check" unrepresentable at the
// call site. A zero Identity is unverified and fails every authorization
// check.
//
// The capability snapshot is deliberately stale: it reflects the Backend
// state at verification time and is never refreshed during the identity's
// lifetime. Identities are request-scoped values; they must not be stored
// or serialized across trust boundaries.
type Identity struct {
	user         UserRecord
	capabilities CapabilitySet
	verifiedAt   time.Time
	verified     bool
}

// newIdentity seals a successful verification into an Identity.
func newIdentity(user UserRecord, capabilities CapabilitySet, verifiedAt time.Time) Identity {
	if capabilities == nil {
		capabilities = CapabilitySet{}
	}
	return Identity{
		user:         user,
		capabilities: capabilities,
		verifiedAt:   verifiedAt,
		verified:     true,
	}
}

// User returns the verified user record.
func (id Identity) User() UserRecord {
	return id.user
}

// Capabilities returns the capability snapshot taken at verification time.
// The returned set must not be mutated.
func (id Identity) Capabilities() CapabilitySet {
	return id.capabilities
}

// VerifiedAt returns the time the verification happened.
func (id Identity) VerifiedAt() time.Time {
	return id.verifiedAt
}

// Verified reports whether this identity was produced by a successful
// verification. A zero Identity reports false.
func (id Identity) Verified() bool {
	return id.verified
}

// Can reports whether the identity satisfies the required capability set.
// Pure set containment on the snapshot; never touches the Backend. An
// empty required set is satisfied by any verified identity. A zero
// (unverified) Identity satisfies nothing, not even the empty set.
func (id Identity) Can(required CapabilitySet) bool {
	if !id.verified {
		return false
	}
	return id.capabilities.ContainsAll(required)
}

// Authorize checks the identity against a required capability set and
// returns ErrCapabilityDenied when it does not satisfy it. The error never
// names the missing capability.
func Authorize(id Identity, required CapabilitySet) error {
	if id.Can(required) {
		return nil
	}
	return oops.Code("CAPABILITY_DENIED").
		With("user_id", id.user.ID.String()).
		Wrap(ErrCapabilityDenied)
}
