// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// Validator checks registration input against the credential store.
type Validator struct {
	users UserRepository
}

// NewValidator creates a Validator.
func NewValidator(users UserRepository) *Validator {
	return &Validator{users: users}
}

// Check returns every rule reg violates, in a fixed order. All rules are
// evaluated so several violations can be reported together. The returned
// error is non-nil only when the store could not be queried.
func (v *Validator) Check(ctx context.Context, reg Registration) ([]string, error) {
	var violations []string

	if reg.Username == "" {
		violations = append(violations, MsgUsernameEmpty)
	}
	if !ValidEmail(reg.Email) {
		violations = append(violations, MsgInvalidEmail)
	}
	if reg.Password == "" {
		violations = append(violations, MsgPasswordEmpty)
	}
	if reg.Password != reg.PasswordConf {
		violations = append(violations, MsgPasswordsDiffer)
	}

	taken, err := v.usernameTaken(ctx, reg.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		violations = append(violations, MsgUsernameTaken)
	}

	taken, err = v.emailTaken(ctx, reg.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		violations = append(violations, MsgEmailTaken)
	}

	return violations, nil
}

func (v *Validator) usernameTaken(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	return exists(v.users.GetByUsername(ctx, username))
}

func (v *Validator) emailTaken(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	return exists(v.users.GetByEmail(ctx, email))
}

func exists(_ *User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ValidEmail reports whether s is a bare RFC 5322 address (no display name,
// no angle brackets) whose domain has at least one dot.
func ValidEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}
