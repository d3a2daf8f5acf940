// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/annotons/genocrowd/internal/store"
)

var policy = store.RetryPolicy{Base: 100 * time.Millisecond, MaxDelay: time.Second, MaxRetries: 10}

var _ = Describe("Migrator", func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("genocrowd"),
			postgres.WithUsername("genocrowd"),
			postgres.WithPassword("genocrowd"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2)),
		)
		Expect(err).NotTo(HaveOccurred())
		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(container.Terminate(ctx)).To(Succeed())
	})

	It("applies and rolls back the users schema", func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer migrator.Close()

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed())
		latest, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(latest).To(BeNumerically(">", 0))
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest - 1))

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Force(1)).To(Succeed())
		version, dirty, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
	})

	It("connects a pool once the server answers", func() {
		pool, err := store.ConnectPostgres(ctx, connStr, policy)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()
		Expect(pool.Ping(ctx)).To(Succeed())
	})
})

var _ = Describe("ConnectMongo", func() {
	It("returns the named database", func() {
		ctx := context.Background()
		container, err := mongodb.Run(ctx, "mongo:7")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(container.Terminate(ctx)).To(Succeed()) })

		uri, err := container.ConnectionString(ctx)
		Expect(err).NotTo(HaveOccurred())

		client, db, err := store.ConnectMongo(ctx, uri, "genocrowd", policy)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = client.Disconnect(ctx) })
		Expect(db.Name()).To(Equal("genocrowd"))
	})
})
