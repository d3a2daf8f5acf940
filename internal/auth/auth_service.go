// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Service implements registration, authentication and profile changes over a
// UserRepository.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	resolver  *Resolver
	validator *Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a Service that logs to slog.Default.
func NewAuthService(users UserRepository, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(users, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a Service with an explicit logger.
func NewAuthServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		resolver:  NewResolver(users),
		validator: NewValidator(users),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Authenticate resolves creds.Login and verifies creds.Password against the
// stored hash. Wrong passwords and unknown logins are reported in the Result;
// only store faults are returned as errors. Authenticate never writes.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*Result, error) {
	user, err := s.resolver.Resolve(ctx, creds.Login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(KindAuthenticationFailed, CodeUserNotFound, MsgUserNotFound), nil
		}
		return nil, oops.With("operation", "resolve login").Wrap(err)
	}

	valid, err := s.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		// An unreadable stored hash can never match.
		s.logger.WarnContext(ctx, "stored password hash is unreadable",
			"user_id", user.ID.String(),
			"error", err.Error(),
		)
		valid = false
	}
	if !valid {
		return failure(KindAuthenticationFailed, CodeInvalidPassword, MsgInvalidPassword), nil
	}

	return success(user), nil
}

// RehashIfNeeded replaces a stale password hash after a successful login.
// Failures are logged and otherwise ignored.
func (s *Service) RehashIfNeeded(ctx context.Context, user *User, password string) {
	if user == nil || !s.hasher.NeedsUpgrade(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "rehash_password",
			"user_id", user.ID.String(),
			"error", err.Error(),
		)
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "rehash_password",
			"user_id", user.ID.String(),
			"error", err.Error(),
		)
		return
	}
	user.PasswordHash = hash
}

// Register validates reg and inserts a new non-admin, unblocked user.
func (s *Service) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	violations, err := s.validator.Check(ctx, reg)
	if err != nil {
		return nil, oops.With("operation", "validate registration").Wrap(err)
	}
	if len(violations) > 0 {
		return &RegisterResult{Error: true, ErrorMessages: violations}, nil
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		Created:      s.now().UTC().Truncate(time.Second),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if msg, ok := duplicateMessage(err); ok {
			return &RegisterResult{Error: true, ErrorMessages: []string{msg}}, nil
		}
		return nil, oops.With("operation", "create user").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"username", user.Username,
	)
	return &RegisterResult{User: user}, nil
}

// duplicateMessage maps a unique constraint conflict to its message.
func duplicateMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrDuplicateUsername):
		return MsgUsernameTaken, true
	case errors.Is(err, ErrDuplicateEmail):
		return MsgEmailTaken, true
	default:
		return "", false
	}
}
