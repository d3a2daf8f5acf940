// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package authtest provides test doubles for the auth package.
package authtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/annotons/genocrowd/internal/auth"
)

// PlainHasher stores passwords with a "plain:" prefix. It is fast and
// deterministic, for tests only.
type PlainHasher struct{}

// Hash returns "plain:" + password.
func (PlainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	return "plain:" + password, nil
}

// Verify compares against the "plain:" form.
func (PlainHasher) Verify(password, hash string) (bool, error) {
	if !strings.HasPrefix(hash, "plain:") {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("not a plain hash")
	}
	return hash == "plain:"+password, nil
}

// NeedsUpgrade always returns false.
func (PlainHasher) NeedsUpgrade(string) bool {
	return false
}

// MemoryUserRepository is an in-memory auth.UserRepository that enforces
// username and email uniqueness like the real stores.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[auth.ID]*auth.User

	// Writes counts every mutating call, successful or not.
	Writes int
}

var _ auth.UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[auth.ID]*auth.User)}
}

// Seed inserts users directly, assigning IDs where missing.
func (r *MemoryUserRepository) Seed(users ...*auth.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = auth.NewID()
		}
		stored := *u
		r.users[u.ID] = &stored
	}
}

func (r *MemoryUserRepository) find(match func(*auth.User) bool) *auth.User {
	for _, u := range r.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *MemoryUserRepository) conflict(id auth.ID, username, email string) error {
	if u := r.find(func(u *auth.User) bool { return u.Username == username && u.ID != id }); u != nil {
		return oops.Code(auth.CodeDuplicateUsername).Wrap(auth.ErrDuplicateUsername)
	}
	if u := r.find(func(u *auth.User) bool { return u.Email == email && u.ID != id }); u != nil {
		return oops.Code(auth.CodeDuplicateEmail).Wrap(auth.ErrDuplicateEmail)
	}
	return nil
}

func copyOf(u *auth.User) *auth.User {
	c := *u
	return &c
}

// Create implements auth.UserRepository.
func (r *MemoryUserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	if err := r.conflict(auth.NilID, user.Username, user.Email); err != nil {
		return err
	}
	user.ID = auth.NewID()
	r.users[user.ID] = copyOf(user)
	return nil
}

// GetByID implements auth.UserRepository.
func (r *MemoryUserRepository) GetByID(_ context.Context, id auth.ID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyOf(u), nil
	}
	return nil, auth.ErrNotFound
}

// GetByUsername implements auth.UserRepository.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *auth.User) bool { return u.Username == username }); u != nil {
		return copyOf(u), nil
	}
	return nil, auth.ErrNotFound
}

// GetByEmail implements auth.UserRepository.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(func(u *auth.User) bool { return u.Email == email }); u != nil {
		return copyOf(u), nil
	}
	return nil, auth.ErrNotFound
}

// List implements auth.UserRepository. Users are ordered by username.
func (r *MemoryUserRepository) List(_ context.Context) ([]*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*auth.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, copyOf(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// UpdateProfile implements auth.UserRepository.
func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id auth.ID, username, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	u, ok := r.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if err := r.conflict(id, username, email); err != nil {
		return nil, err
	}
	u.Username = username
	u.Email = email
	return copyOf(u), nil
}

// UpdatePassword implements auth.UserRepository.
func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id auth.ID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	u, ok := r.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// SetAdmin implements auth.UserRepository.
func (r *MemoryUserRepository) SetAdmin(_ context.Context, username string, isAdmin bool) error {
	return r.setFlag(username, func(u *auth.User) { u.IsAdmin = isAdmin })
}

// SetBlocked implements auth.UserRepository.
func (r *MemoryUserRepository) SetBlocked(_ context.Context, username string, blocked bool) error {
	return r.setFlag(username, func(u *auth.User) { u.Blocked = blocked })
}

func (r *MemoryUserRepository) setFlag(username string, apply func(*auth.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	u := r.find(func(u *auth.User) bool { return u.Username == username })
	if u == nil {
		return auth.ErrNotFound
	}
	apply(u)
	return nil
}
