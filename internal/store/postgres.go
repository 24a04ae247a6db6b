// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package store manages the PostgreSQL connection pool and schema.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// NewPool opens a pgx connection pool for the given storage URI. The pool
// is not pinged; use WaitReady when the database may still be starting.
func NewPool(ctx context.Context, uri string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, oops.Code("STORE_URI_INVALID").
			With("operation", "parse storage uri").
			Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}
	return pool, nil
}

// WaitReady pings the pool with exponential backoff until the database
// answers or the deadline passes. Used by operator commands that may race
// a database that is still booting.
func WaitReady(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	backoff := retry.NewExponential(250 * time.Millisecond)
	backoff = retry.WithMaxDuration(timeout, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_NOT_READY").
			With("operation", "wait for database").
			With("timeout", timeout.String()).
			Wrap(err)
	}
	return nil
}
