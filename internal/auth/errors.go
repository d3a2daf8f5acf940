// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// Store conflicts raised by unique indexes on username and email.
var (
	ErrDuplicateUsername = errors.New(MsgUsernameTaken)
	ErrDuplicateEmail    = errors.New(MsgEmailTaken)
)

// Kind classifies a failed operation for the HTTP boundary.
type Kind string

// Failure kinds.
const (
	KindValidationFailed     Kind = "validation_failed"
	KindAuthenticationFailed Kind = "authentication_failed"
	KindAuthorizationDenied  Kind = "authorization_denied"
	KindNotFound             Kind = "not_found"
	KindStoreUnavailable     Kind = "store_unavailable"
)

// Error codes attached to results and oops errors.
const (
	CodeValidationFailed     = "AUTH_VALIDATION_FAILED"
	CodeDuplicateUsername    = "AUTH_DUPLICATE_USERNAME"
	CodeDuplicateEmail       = "AUTH_DUPLICATE_EMAIL"
	CodeInvalidEmail         = "AUTH_INVALID_EMAIL"
	CodePasswordMismatch     = "AUTH_PASSWORD_MISMATCH"
	CodeEmptyPassword        = "AUTH_EMPTY_PASSWORD"
	CodeInvalidPassword      = "AUTH_INVALID_PASSWORD"
	CodeUserNotFound         = "AUTH_USER_NOT_FOUND"
	CodeIncorrectOldPassword = "AUTH_INCORRECT_OLD_PASSWORD"
	CodeStoreUnavailable     = "STORE_UNAVAILABLE"
)

// User-facing messages. Clients match on these strings.
const (
	MsgUsernameEmpty        = "Username name empty"
	MsgInvalidEmail         = "Not a valid email"
	MsgPasswordEmpty        = "Password empty"
	MsgPasswordsDiffer      = "Passwords doesn't match"
	MsgUsernameTaken        = "Username already registered"
	MsgEmailTaken           = "Email already registered"
	MsgInvalidPassword      = "Invalid password"
	MsgUserNotFound         = "User not found"
	MsgNewPasswordsDiffer   = "New passwords are not identical"
	MsgEmptyPassword        = "Empty password"
	MsgIncorrectOldPassword = "Incorrect old password"
)

// StoreError wraps a driver failure as STORE_UNAVAILABLE.
// Repository implementations use it for every error that is not a miss or a
// uniqueness conflict.
func StoreError(operation string, err error) error {
	return oops.Code(CodeStoreUnavailable).
		With("operation", operation).
		Wrap(err)
}

// IsStoreUnavailable reports whether err came from a failing store.
func IsStoreUnavailable(err error) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeStoreUnavailable
}
