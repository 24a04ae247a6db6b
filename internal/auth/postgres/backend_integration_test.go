//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/store"
)

// setupBackend starts a PostgreSQL container, migrates it, and returns a
// Backend over a fresh pool.
func setupBackend() (*postgres.Backend, *pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gatewarden_test"),
		tcpostgres.WithUsername("gatewarden"),
		tcpostgres.WithPassword("gatewarden"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, nil, err
	}
	_ = migrator.Close()

	pool, err := store.NewPool(ctx, connStr)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return postgres.NewBackend(pool), pool, cleanup, nil
}

var _ = Describe("Backend", func() {
	var (
		backend *postgres.Backend
		cleanup func()
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		backend, _, cleanup, err = setupBackend()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("RegisterUser", func() {
		It("persists and retrieves the user", func() {
			user, err := backend.RegisterUser(ctx, "alice", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())

			found, err := backend.FindUserByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.ID).To(Equal(user.ID))

			byID, err := backend.FindUserByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Username).To(Equal("alice"))
		})

		It("reports a duplicate username", func() {
			_, err := backend.RegisterUser(ctx, "alice", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())

			_, err = backend.RegisterUser(ctx, "alice", "$argon2id$other")
			Expect(err).To(MatchError(auth.ErrDuplicateUser))
		})

		It("returns nil for an absent user", func() {
			found, err := backend.FindUserByUsername(ctx, "nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})
	})

	Describe("Capabilities", func() {
		It("grants, lists, and revokes labels", func() {
			user, err := backend.RegisterUser(ctx, "alice", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())

			Expect(backend.GrantCapability(ctx, user.ID, "read")).To(Succeed())
			Expect(backend.GrantCapability(ctx, user.ID, "read")).To(Succeed(), "re-grant is a no-op")
			Expect(backend.GrantCapability(ctx, user.ID, "write")).To(Succeed())

			set, err := backend.FindCapabilities(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Labels()).To(Equal([]string{"read", "write"}))

			Expect(backend.RevokeCapability(ctx, user.ID, "write")).To(Succeed())
			set, err = backend.FindCapabilities(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Labels()).To(Equal([]string{"read"}))
		})
	})

	Describe("Sessions", func() {
		It("creates, finds, and deletes a session", func() {
			user, err := backend.RegisterUser(ctx, "alice", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())

			token, err := backend.CreateSession(ctx, user.ID, 5*time.Minute)
			Expect(err).NotTo(HaveOccurred())

			session, err := backend.FindSession(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(session).NotTo(BeNil())
			Expect(session.UserID).To(Equal(user.ID))
			Expect(session.ExpiresAt).To(BeTemporally(">", time.Now()))

			Expect(backend.DeleteSession(ctx, token)).To(Succeed())
			Expect(backend.DeleteSession(ctx, token)).To(Succeed(), "delete is idempotent")

			session, err = backend.FindSession(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(BeNil())
		})

		It("reaps only expired sessions", func() {
			user, err := backend.RegisterUser(ctx, "alice", "$argon2id$hash")
			Expect(err).NotTo(HaveOccurred())

			expired, err := backend.CreateSession(ctx, user.ID, -time.Minute)
			Expect(err).NotTo(HaveOccurred())
			live, err := backend.CreateSession(ctx, user.ID, time.Hour)
			Expect(err).NotTo(HaveOccurred())

			listed, err := backend.ListExpiredSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(1))
			Expect(listed[0].Token).To(Equal(expired))

			reaped, err := backend.ReapExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(reaped).To(Equal(int64(1)))

			session, err := backend.FindSession(ctx, live)
			Expect(err).NotTo(HaveOccurred())
			Expect(session).NotTo(BeNil())
		})
	})
})
