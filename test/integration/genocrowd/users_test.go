// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

//go:build integration

package genocrowd_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/annotons/genocrowd/internal/auth"
	authmongo "github.com/annotons/genocrowd/internal/auth/mongodb"
	authpostgres "github.com/annotons/genocrowd/internal/auth/postgres"
)

type userBackend struct {
	name  string
	repo  func() auth.UserRepository
	reset func(context.Context)
}

var userBackends = []userBackend{
	{
		name:  "postgres",
		repo:  func() auth.UserRepository { return authpostgres.NewUserRepository(env.pool) },
		reset: resetPostgres,
	},
	{
		name:  "mongodb",
		repo:  func() auth.UserRepository { return authmongo.NewUserRepository(env.db) },
		reset: resetMongo,
	},
}

func newUser(username, email string) *auth.User {
	return &auth.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Created:      time.Now().UTC().Truncate(time.Second),
	}
}

var _ = Describe("UserRepository", func() {
	for _, backend := range userBackends {
		Context("on "+backend.name, func() {
			var (
				ctx  context.Context
				repo auth.UserRepository
			)

			BeforeEach(func() {
				ctx = context.Background()
				backend.reset(ctx)
				repo = backend.repo()
			})

			It("creates and reads a user by id, username and email", func() {
				u := newUser("jdoe", "jdoe@genocrowd.org")
				Expect(repo.Create(ctx, u)).To(Succeed())
				Expect(u.ID.IsZero()).To(BeFalse())

				byID, err := repo.GetByID(ctx, u.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(byID.Username).To(Equal("jdoe"))
				Expect(byID.PasswordHash).To(Equal(u.PasswordHash))
				Expect(byID.Created.Unix()).To(Equal(u.Created.Unix()))

				byName, err := repo.GetByUsername(ctx, "jdoe")
				Expect(err).NotTo(HaveOccurred())
				Expect(byName.ID).To(Equal(u.ID))

				byEmail, err := repo.GetByEmail(ctx, "jdoe@genocrowd.org")
				Expect(err).NotTo(HaveOccurred())
				Expect(byEmail.ID).To(Equal(u.ID))
			})

			It("reports a miss as ErrNotFound", func() {
				_, err := repo.GetByUsername(ctx, "ghost")
				Expect(err).To(MatchError(auth.ErrNotFound))

				_, err = repo.GetByID(ctx, auth.NewID())
				Expect(err).To(MatchError(auth.ErrNotFound))
			})

			It("rejects duplicate usernames and emails", func() {
				Expect(repo.Create(ctx, newUser("jdoe", "jdoe@genocrowd.org"))).To(Succeed())

				err := repo.Create(ctx, newUser("jdoe", "other@genocrowd.org"))
				Expect(err).To(MatchError(auth.ErrDuplicateUsername))

				err = repo.Create(ctx, newUser("other", "jdoe@genocrowd.org"))
				Expect(err).To(MatchError(auth.ErrDuplicateEmail))
			})

			It("lists users oldest first", func() {
				first := newUser("b", "b@genocrowd.org")
				first.Created = first.Created.Add(-time.Hour)
				Expect(repo.Create(ctx, first)).To(Succeed())
				Expect(repo.Create(ctx, newUser("a", "a@genocrowd.org"))).To(Succeed())

				users, err := repo.List(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(users).To(HaveLen(2))
				Expect(users[0].Username).To(Equal("b"))
				Expect(users[1].Username).To(Equal("a"))
			})

			It("updates the profile and maps conflicts", func() {
				u := newUser("jdoe", "jdoe@genocrowd.org")
				Expect(repo.Create(ctx, u)).To(Succeed())
				Expect(repo.Create(ctx, newUser("jsmith", "jsmith@genocrowd.org"))).To(Succeed())

				updated, err := repo.UpdateProfile(ctx, u.ID, "john", "john@genocrowd.org")
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Username).To(Equal("john"))
				Expect(updated.Email).To(Equal("john@genocrowd.org"))

				_, err = repo.UpdateProfile(ctx, u.ID, "jsmith", "john@genocrowd.org")
				Expect(err).To(MatchError(auth.ErrDuplicateUsername))

				_, err = repo.UpdateProfile(ctx, auth.NewID(), "x", "x@genocrowd.org")
				Expect(err).To(MatchError(auth.ErrNotFound))
			})

			It("updates the password hash", func() {
				u := newUser("jdoe", "jdoe@genocrowd.org")
				Expect(repo.Create(ctx, u)).To(Succeed())

				Expect(repo.UpdatePassword(ctx, u.ID, "new-hash")).To(Succeed())
				got, err := repo.GetByID(ctx, u.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.PasswordHash).To(Equal("new-hash"))
			})

			It("sets the admin and blocked flags independently", func() {
				Expect(repo.Create(ctx, newUser("jdoe", "jdoe@genocrowd.org"))).To(Succeed())

				Expect(repo.SetAdmin(ctx, "jdoe", true)).To(Succeed())
				Expect(repo.SetBlocked(ctx, "jdoe", true)).To(Succeed())
				got, err := repo.GetByUsername(ctx, "jdoe")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.IsAdmin).To(BeTrue())
				Expect(got.Blocked).To(BeTrue())

				Expect(repo.SetAdmin(ctx, "jdoe", false)).To(Succeed())
				got, err = repo.GetByUsername(ctx, "jdoe")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.IsAdmin).To(BeFalse())
				Expect(got.Blocked).To(BeTrue())

				Expect(repo.SetBlocked(ctx, "ghost", true)).To(MatchError(auth.ErrNotFound))
			})
		})
	}
})
