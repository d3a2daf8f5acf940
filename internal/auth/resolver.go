// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Resolver maps a login string to a user.
type Resolver struct {
	users UserRepository
}

// NewResolver creates a Resolver.
func NewResolver(users UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve looks login up as a username first and then as an email. A
// username match wins even if another user's email equals login.
// Returns an error wrapping ErrNotFound when neither matches.
func (r *Resolver) Resolve(ctx context.Context, login string) (*User, error) {
	if login == "" {
		return nil, oops.Code(CodeUserNotFound).Wrap(ErrNotFound)
	}

	user, err := r.users.GetByUsername(ctx, login)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err = r.users.GetByEmail(ctx, login)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeUserNotFound).With("login", login).Wrap(ErrNotFound)
	}
	return nil, err
}
