// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package mocks contains testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/annotons/genocrowd/internal/auth"
)

// MockUserRepository is a testify mock for auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ auth.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a mock that asserts its expectations when
// the test finishes.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func userOrNil(ret mock.Arguments, i int) *auth.User {
	if u, ok := ret.Get(i).(*auth.User); ok {
		return u
	}
	return nil
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	ret := m.Called(ctx, user)
	if fn, ok := ret.Get(0).(func(context.Context, *auth.User) error); ok {
		return fn(ctx, user)
	}
	return ret.Error(0)
}

// GetByID provides a mock function.
func (m *MockUserRepository) GetByID(ctx context.Context, id auth.ID) (*auth.User, error) {
	ret := m.Called(ctx, id)
	return userOrNil(ret, 0), ret.Error(1)
}

// GetByUsername provides a mock function.
func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	ret := m.Called(ctx, username)
	return userOrNil(ret, 0), ret.Error(1)
}

// GetByEmail provides a mock function.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	ret := m.Called(ctx, email)
	return userOrNil(ret, 0), ret.Error(1)
}

// List provides a mock function.
func (m *MockUserRepository) List(ctx context.Context) ([]*auth.User, error) {
	ret := m.Called(ctx)
	users, _ := ret.Get(0).([]*auth.User)
	return users, ret.Error(1)
}

// UpdateProfile provides a mock function.
func (m *MockUserRepository) UpdateProfile(ctx context.Context, id auth.ID, username, email string) (*auth.User, error) {
	ret := m.Called(ctx, id, username, email)
	return userOrNil(ret, 0), ret.Error(1)
}

// UpdatePassword provides a mock function.
func (m *MockUserRepository) UpdatePassword(ctx context.Context, id auth.ID, passwordHash string) error {
	ret := m.Called(ctx, id, passwordHash)
	return ret.Error(0)
}

// SetAdmin provides a mock function.
func (m *MockUserRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	ret := m.Called(ctx, username, isAdmin)
	return ret.Error(0)
}

// SetBlocked provides a mock function.
func (m *MockUserRepository) SetBlocked(ctx context.Context, username string, blocked bool) error {
	ret := m.Called(ctx, username, blocked)
	return ret.Error(0)
}
