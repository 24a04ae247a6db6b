// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/errutil"
)

func TestNewPool_InvalidURI(t *testing.T) {
	_, err := NewPool(context.Background(), "://not-a-uri")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "STORE_URI_INVALID")
}
