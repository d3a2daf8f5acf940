// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// UpdateProfile changes the subject's username and email. Empty fields in
// upd keep the current value. A changed username or email must not belong to
// another user, and a changed email must be well formed.
func (s *Service) UpdateProfile(ctx context.Context, subject Subject, upd ProfileUpdate) (*Result, error) {
	username, email := upd.resolve(subject)

	if email != subject.Email && !ValidEmail(email) {
		return failure(KindValidationFailed, CodeInvalidEmail, MsgInvalidEmail), nil
	}

	if username != subject.Username {
		other, err := s.users.GetByUsername(ctx, username)
		switch {
		case err == nil && other.ID != subject.ID:
			return failure(KindValidationFailed, CodeDuplicateUsername, MsgUsernameTaken), nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, oops.With("operation", "check username").Wrap(err)
		}
	}

	if email != subject.Email {
		other, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != subject.ID:
			return failure(KindValidationFailed, CodeDuplicateEmail, MsgEmailTaken), nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, oops.With("operation", "check email").Wrap(err)
		}
	}

	updated, err := s.users.UpdateProfile(ctx, subject.ID, username, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			return failure(KindValidationFailed, CodeDuplicateUsername, MsgUsernameTaken), nil
		case errors.Is(err, ErrDuplicateEmail):
			return failure(KindValidationFailed, CodeDuplicateEmail, MsgEmailTaken), nil
		case errors.Is(err, ErrNotFound):
			return failure(KindNotFound, CodeUserNotFound, MsgUserNotFound), nil
		}
		return nil, oops.With("operation", "update profile").
			With("user_id", subject.ID.String()).
			Wrap(err)
	}

	return success(updated), nil
}

// UpdatePassword rotates the subject's password after re-verifying the old
// one. The checks run in order: confirmation match, non-empty, old password.
// No failure path writes to the store.
func (s *Service) UpdatePassword(ctx context.Context, subject Subject, upd PasswordUpdate) (*Result, error) {
	if upd.NewPassword != upd.ConfPassword {
		return failure(KindValidationFailed, CodePasswordMismatch, MsgNewPasswordsDiffer), nil
	}
	if upd.NewPassword == "" {
		return failure(KindValidationFailed, CodeEmptyPassword, MsgEmptyPassword), nil
	}

	check, err := s.Authenticate(ctx, Credentials{Login: subject.Username, Password: upd.OldPassword})
	if err != nil {
		return nil, err
	}
	if check.Error {
		return failure(KindAuthenticationFailed, CodeIncorrectOldPassword, MsgIncorrectOldPassword), nil
	}

	hash, err := s.hasher.Hash(upd.NewPassword)
	if err != nil {
		return nil, oops.Code("AUTH_PASSWORD_UPDATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	if err := s.users.UpdatePassword(ctx, check.User.ID, hash); err != nil {
		return nil, oops.With("operation", "update password").
			With("user_id", check.User.ID.String()).
			Wrap(err)
	}

	check.User.PasswordHash = hash
	return success(check.User), nil
}
