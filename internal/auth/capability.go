// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"sort"
	"strings"
)

// CapabilitySet is an unordered set of capability labels. Labels are
// free-form strings compared exactly and case-sensitively; there is no
// hierarchy and no wildcard matching.
type CapabilitySet map[string]struct{}

// NewCapabilitySet builds a set from the given labels.
func NewCapabilitySet(labels ...string) CapabilitySet {
	set := make(CapabilitySet, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the given label.
func (s CapabilitySet) Contains(label string) bool {
	_, ok := s[label]
	return ok
}

// ContainsAll reports whether every label in required is present.
// An empty required set is always satisfied.
func (s CapabilitySet) ContainsAll(required CapabilitySet) bool {
	for label := range required {
		if _, ok := s[label]; !ok {
			return false
		}
	}
	return true
}

// Labels returns the labels in sorted order, for logging and display.
func (s CapabilitySet) Labels() []string {
	labels := make([]string, 0, len(s))
	for l := range s {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func (s CapabilitySet) String() string {
	return "{" + strings.Join(s.Labels(), ", ") + "}"
}
