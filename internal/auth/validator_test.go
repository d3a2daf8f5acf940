// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/auth/authtest"
	"github.com/annotons/genocrowd/internal/auth/mocks"
)

func seededRepo() *authtest.MemoryUserRepository {
	repo := authtest.NewMemoryUserRepository()
	repo.Seed(
		&auth.User{Username: "jdoe", Email: "jdoe@genocrowd.org", PasswordHash: "plain:iamjohndoe", IsAdmin: true},
		&auth.User{Username: "jsmith", Email: "jsmith@genocrowd.org", PasswordHash: "plain:iamjanesmith"},
	)
	return repo
}

func TestValidator_Check(t *testing.T) {
	tests := []struct {
		name string
		reg  auth.Registration
		want []string
	}{
		{
			name: "valid registration",
			reg:  auth.Registration{Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw"},
			want: nil,
		},
		{
			name: "empty username",
			reg:  auth.Registration{Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw"},
			want: []string{auth.MsgUsernameEmpty},
		},
		{
			name: "invalid email",
			reg:  auth.Registration{Username: "ajones", Email: "ajones", Password: "pw", PasswordConf: "pw"},
			want: []string{auth.MsgInvalidEmail},
		},
		{
			name: "empty password also mismatches a non-empty confirmation",
			reg:  auth.Registration{Username: "ajones", Email: "ajones@genocrowd.org", PasswordConf: "pw"},
			want: []string{auth.MsgPasswordEmpty, auth.MsgPasswordsDiffer},
		},
		{
			name: "empty password with empty confirmation",
			reg:  auth.Registration{Username: "ajones", Email: "ajones@genocrowd.org"},
			want: []string{auth.MsgPasswordEmpty},
		},
		{
			name: "passwords differ",
			reg:  auth.Registration{Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "wp"},
			want: []string{auth.MsgPasswordsDiffer},
		},
		{
			name: "username taken",
			reg:  auth.Registration{Username: "jdoe", Email: "other@genocrowd.org", Password: "pw", PasswordConf: "pw"},
			want: []string{auth.MsgUsernameTaken},
		},
		{
			name: "email taken",
			reg:  auth.Registration{Username: "other", Email: "jsmith@genocrowd.org", Password: "pw", PasswordConf: "pw"},
			want: []string{auth.MsgEmailTaken},
		},
		{
			name: "every rule reported together",
			reg:  auth.Registration{Username: "", Email: "bad", Password: "", PasswordConf: "x"},
			want: []string{auth.MsgUsernameEmpty, auth.MsgInvalidEmail, auth.MsgPasswordEmpty, auth.MsgPasswordsDiffer},
		},
		{
			name: "duplicate username and email",
			reg:  auth.Registration{Username: "jdoe", Email: "jsmith@genocrowd.org", Password: "pw", PasswordConf: "pw"},
			want: []string{auth.MsgUsernameTaken, auth.MsgEmailTaken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := seededRepo()
			got, err := auth.NewValidator(repo).Check(context.Background(), tt.reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, repo.Writes)
		})
	}
}

func TestValidator_Check_StoreFailure(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	storeErr := auth.StoreError("find user", errors.New("connection refused"))
	repo.On("GetByUsername", mock.Anything, "ajones").Return(nil, storeErr)

	got, err := auth.NewValidator(repo).Check(context.Background(), auth.Registration{
		Username: "ajones", Email: "ajones@genocrowd.org", Password: "pw", PasswordConf: "pw",
	})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, auth.IsStoreUnavailable(err))
}

func TestValidEmail(t *testing.T) {
	valid := []string{
		"jdoe@genocrowd.org",
		"first.last+tag@sub.example.com",
	}
	invalid := []string{
		"",
		"jdoe",
		"jdoe@",
		"@genocrowd.org",
		"jdoe@localhost",
		"jdoe@genocrowd.",
		"John <jdoe@genocrowd.org>",
		" jdoe@genocrowd.org",
		"jdoe@@genocrowd.org",
	}
	for _, s := range valid {
		assert.True(t, auth.ValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, auth.ValidEmail(s), s)
	}
}
