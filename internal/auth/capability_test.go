// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewarden/gatewarden/internal/auth"
)

func TestCapabilitySet_Contains(t *testing.T) {
	set := auth.NewCapabilitySet("read", "write")

	assert.True(t, set.Contains("read"))
	assert.True(t, set.Contains("write"))
	assert.False(t, set.Contains("admin"))
	assert.False(t, set.Contains("READ"), "labels are case-sensitive")
}

func TestCapabilitySet_ContainsAll(t *testing.T) {
	set := auth.NewCapabilitySet("read", "write", "admin")

	assert.True(t, set.ContainsAll(auth.NewCapabilitySet("read")))
	assert.True(t, set.ContainsAll(auth.NewCapabilitySet("read", "admin")))
	assert.False(t, set.ContainsAll(auth.NewCapabilitySet("read", "delete")))

	// The empty requirement is satisfied by anything, including an empty set.
	assert.True(t, set.ContainsAll(auth.CapabilitySet{}))
	assert.True(t, set.ContainsAll(nil))
	assert.True(t, auth.CapabilitySet{}.ContainsAll(nil))
	assert.False(t, auth.CapabilitySet{}.ContainsAll(auth.NewCapabilitySet("read")))
}

func TestCapabilitySet_Labels(t *testing.T) {
	set := auth.NewCapabilitySet("write", "admin", "read")
	assert.Equal(t, []string{"admin", "read", "write"}, set.Labels(), "labels sort deterministically")
	assert.Empty(t, auth.CapabilitySet{}.Labels())
}

func TestCapabilitySet_Deduplicates(t *testing.T) {
	set := auth.NewCapabilitySet("read", "read", "read")
	assert.Len(t, set, 1)
}
