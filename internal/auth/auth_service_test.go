// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/auth/authtest"
	"github.com/annotons/genocrowd/internal/auth/mocks"
)

func newService(t *testing.T, repo auth.UserRepository) *auth.Service {
	t.Helper()
	svc, err := auth.NewAuthService(repo, authtest.PlainHasher{})
	require.NoError(t, err)
	return svc
}

func TestNewAuthService_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		users       auth.UserRepository
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil users repository",
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "users repository is required",
		},
		{
			name:        "nil password hasher",
			users:       mocks.NewMockUserRepository(t),
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewAuthService(tt.users, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		creds     auth.Credentials
		wantError bool
		wantMsg   string
		wantCode  string
		wantUser  string
	}{
		{
			name:     "username and correct password",
			creds:    auth.Credentials{Login: "jdoe", Password: "iamjohndoe"},
			wantUser: "jdoe",
		},
		{
			name:     "email and correct password",
			creds:    auth.Credentials{Login: "jdoe@genocrowd.org", Password: "iamjohndoe"},
			wantUser: "jdoe",
		},
		{
			name:      "wrong password",
			creds:     auth.Credentials{Login: "jdoe", Password: "iamjanesmith"},
			wantError: true,
			wantMsg:   "Invalid password",
			wantCode:  auth.CodeInvalidPassword,
		},
		{
			name:      "wrong password by email",
			creds:     auth.Credentials{Login: "jsmith@genocrowd.org", Password: "nope"},
			wantError: true,
			wantMsg:   "Invalid password",
			wantCode:  auth.CodeInvalidPassword,
		},
		{
			name:      "unknown login",
			creds:     auth.Credentials{Login: "nobody", Password: "whatever"},
			wantError: true,
			wantMsg:   "User not found",
			wantCode:  auth.CodeUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := seededRepo()
			res, err := newService(t, repo).Authenticate(ctx, tt.creds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Equal(t, tt.wantMsg, res.ErrorMessage)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Zero(t, repo.Writes, "authenticate must not write")
			if tt.wantUser == "" {
				assert.Nil(t, res.User)
				assert.Equal(t, auth.KindAuthenticationFailed, res.Kind)
				return
			}
			require.NotNil(t, res.User)
			assert.Equal(t, tt.wantUser, res.User.Username)
			assert.Len(t, res.User.ID.String(), 24)
		})
	}
}

func TestService_Authenticate_EmailLoginMatchesUsernameLogin(t *testing.T) {
	svc := newService(t, seededRepo())

	byName, err := svc.Authenticate(context.Background(), auth.Credentials{Login: "jsmith", Password: "iamjanesmith"})
	require.NoError(t, err)
	byEmail, err := svc.Authenticate(context.Background(), auth.Credentials{Login: "jsmith@genocrowd.org", Password: "iamjanesmith"})
	require.NoError(t, err)

	assert.Equal(t, byName, byEmail)
}

func TestService_Authenticate_UnreadableHashIsInvalidPassword(t *testing.T) {
	repo := authtest.NewMemoryUserRepository()
	repo.Seed(&auth.User{Username: "legacy", Email: "legacy@genocrowd.org", PasswordHash: "garbage"})

	res, err := newService(t, repo).Authenticate(context.Background(), auth.Credentials{Login: "legacy", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, res.Error)
	assert.Equal(t, auth.MsgInvalidPassword, res.ErrorMessage)
}

func TestService_Authenticate_StoreFailure(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	repo.On("GetByUsername", mock.Anything, "jdoe").
		Return(nil, auth.StoreError("find user", errors.New("no reachable servers")))

	res, err := newService(t, repo).Authenticate(context.Background(), auth.Credentials{Login: "jdoe", Password: "x"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, auth.IsStoreUnavailable(err))
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a plain user", func(t *testing.T) {
		repo := seededRepo()
		res, err := newService(t, repo).Register(ctx, auth.Registration{
			Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw",
		})
		require.NoError(t, err)
		require.False(t, res.Error)
		require.NotNil(t, res.User)
		assert.False(t, res.User.ID.IsZero())
		assert.False(t, res.User.IsAdmin)
		assert.False(t, res.User.Blocked)
		assert.False(t, res.User.Created.IsZero())
		assert.Equal(t, "plain:pw", res.User.PasswordHash)

		stored, err := repo.GetByUsername(ctx, "ajones")
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, stored.ID)
	})

	t.Run("second registration of the same username is rejected", func(t *testing.T) {
		repo := authtest.NewMemoryUserRepository()
		svc := newService(t, repo)
		reg := auth.Registration{Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw"}

		first, err := svc.Register(ctx, reg)
		require.NoError(t, err)
		require.False(t, first.Error)

		reg.Email = "other@genocrowd.org"
		second, err := svc.Register(ctx, reg)
		require.NoError(t, err)
		assert.True(t, second.Error)
		assert.Equal(t, []string{auth.MsgUsernameTaken}, second.ErrorMessages)
	})

	t.Run("violations do not write", func(t *testing.T) {
		repo := seededRepo()
		res, err := newService(t, repo).Register(ctx, auth.Registration{Username: "x", Email: "bad"})
		require.NoError(t, err)
		assert.True(t, res.Error)
		assert.Contains(t, res.ErrorMessages, auth.MsgInvalidEmail)
		assert.Zero(t, repo.Writes)
	})

	t.Run("unique index conflict maps to already registered", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		repo.On("GetByUsername", mock.Anything, "ajones").Return(nil, auth.ErrNotFound)
		repo.On("GetByEmail", mock.Anything, "ajones@genocrowd.org").Return(nil, auth.ErrNotFound)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Username == "ajones" && !u.IsAdmin
		})).Return(oops.Code(auth.CodeDuplicateEmail).Wrap(auth.ErrDuplicateEmail))

		res, err := newService(t, repo).Register(ctx, auth.Registration{
			Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw",
		})
		require.NoError(t, err)
		assert.True(t, res.Error)
		assert.Equal(t, []string{auth.MsgEmailTaken}, res.ErrorMessages)
	})

	t.Run("store failure on create is an error", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		repo.On("GetByUsername", mock.Anything, "ajones").Return(nil, auth.ErrNotFound)
		repo.On("GetByEmail", mock.Anything, "ajones@genocrowd.org").Return(nil, auth.ErrNotFound)
		repo.On("Create", mock.Anything, mock.Anything).Return(auth.StoreError("insert user", errors.New("write concern")))

		res, err := newService(t, repo).Register(ctx, auth.Registration{
			Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw",
		})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, auth.IsStoreUnavailable(err))
	})
}

func TestService_RehashIfNeeded(t *testing.T) {
	ctx := context.Background()
	user := &auth.User{ID: auth.NewID(), Username: "legacy", PasswordHash: "$2b$10$legacy"}

	t.Run("stale hash is replaced", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("NeedsUpgrade", "$2b$10$legacy").Return(true)
		hasher.On("Hash", "pw").Return("$argon2id$new", nil)
		repo.On("UpdatePassword", mock.Anything, user.ID, "$argon2id$new").Return(nil)

		svc, err := auth.NewAuthService(repo, hasher)
		require.NoError(t, err)

		u := *user
		svc.RehashIfNeeded(ctx, &u, "pw")
		assert.Equal(t, "$argon2id$new", u.PasswordHash)
	})

	t.Run("current hash is left alone", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("NeedsUpgrade", "$argon2id$current").Return(false)

		svc, err := auth.NewAuthService(repo, hasher)
		require.NoError(t, err)

		svc.RehashIfNeeded(ctx, &auth.User{ID: user.ID, PasswordHash: "$argon2id$current"}, "pw")
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})
}
