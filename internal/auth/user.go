// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package auth

import (
	"context"
	"strings"
	"time"
)

// Roles derived from User.IsAdmin.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account in the credential store.
type User struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	Blocked      bool
	IsExternal   bool
	Created      time.Time
}

// Role returns "admin" or "user". It is never stored.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Subject is the authenticated caller of an operation.
type Subject struct {
	ID       ID
	Username string
	Email    string
	IsAdmin  bool
	Blocked  bool
}

// SubjectOf builds the Subject for a freshly loaded user.
func SubjectOf(u *User) Subject {
	return Subject{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		Blocked:  u.Blocked,
	}
}

// Registration is the signup payload.
type Registration struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordConf string `json:"passwordconf"`
}

// Credentials is the login payload. Login is a username or an email.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// ProfileUpdate carries new profile values. Empty fields keep the current value.
type ProfileUpdate struct {
	NewUsername string `json:"newUsername"`
	NewEmail    string `json:"newEmail"`
}

// resolve returns the trimmed target values for subject.
func (p ProfileUpdate) resolve(subject Subject) (username, email string) {
	username = strings.TrimSpace(p.NewUsername)
	if username == "" {
		username = subject.Username
	}
	email = strings.TrimSpace(p.NewEmail)
	if email == "" {
		email = subject.Email
	}
	return username, email
}

// PasswordUpdate is the password rotation payload.
type PasswordUpdate struct {
	OldPassword  string `json:"oldPassword"`
	NewPassword  string `json:"newPassword"`
	ConfPassword string `json:"confPassword"`
}

// Result is the outcome of an operation whose expected failures are part of
// its contract. Store faults are returned as errors instead.
type Result struct {
	Error        bool
	ErrorMessage string
	Kind         Kind
	Code         string
	User         *User
}

// OK reports whether the operation succeeded.
func (r *Result) OK() bool {
	return !r.Error
}

func success(u *User) *Result {
	return &Result{User: u}
}

func failure(kind Kind, code, message string) *Result {
	return &Result{Error: true, ErrorMessage: message, Kind: kind, Code: code}
}

// RegisterResult is the outcome of Register. ErrorMessages lists every
// violated rule.
type RegisterResult struct {
	Error         bool
	ErrorMessages []string
	User          *User
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create inserts a new user and assigns user.ID.
	// Returns an error wrapping ErrDuplicateUsername or ErrDuplicateEmail
	// when a unique constraint rejects the record.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns ErrNotFound if the user does not exist.
	GetByID(ctx context.Context, id ID) (*User, error)

	// GetByUsername retrieves a user by exact username.
	// Returns ErrNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by exact email.
	// Returns ErrNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns every user.
	List(ctx context.Context) ([]*User, error)

	// UpdateProfile overwrites username and email and returns the stored record.
	UpdateProfile(ctx context.Context, id ID, username, email string) (*User, error)

	// UpdatePassword overwrites the password hash.
	UpdatePassword(ctx context.Context, id ID, passwordHash string) error

	// SetAdmin overwrites the admin flag of the named user.
	SetAdmin(ctx context.Context, username string, isAdmin bool) error

	// SetBlocked overwrites the blocked flag of the named user.
	SetBlocked(ctx context.Context, username string, blocked bool) error
}
