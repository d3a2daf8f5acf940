// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// Directory is the admin view of the credential store. It performs no
// authorization; callers must check that the subject is an admin.
type Directory struct {
	users UserRepository
}

// NewDirectory creates a Directory.
func NewDirectory(users UserRepository) *Directory {
	return &Directory{users: users}
}

// ListUsers returns every user.
func (d *Directory) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	return users, nil
}

// SetAdmin overwrites the admin flag of username. The blocked flag is left
// unchanged.
func (d *Directory) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	if err := d.users.SetAdmin(ctx, username, isAdmin); err != nil {
		return oops.With("operation", "set admin").
			With("username", username).
			Wrap(err)
	}
	return nil
}

// SetBlocked overwrites the blocked flag of username. The admin flag is left
// unchanged.
func (d *Directory) SetBlocked(ctx context.Context, username string, blocked bool) error {
	if err := d.users.SetBlocked(ctx, username, blocked); err != nil {
		return oops.With("operation", "set blocked").
			With("username", username).
			Wrap(err)
	}
	return nil
}
