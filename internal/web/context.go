// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"context"

	"github.com/annotons/genocrowd/internal/auth"
)

type userKey struct{}

// ContextWithUser returns ctx carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	user, _ := ctx.Value(userKey{}).(*auth.User) //nolint:errcheck // nil on miss
	return user
}

// SubjectFromContext returns the session subject of the request, if any.
func SubjectFromContext(ctx context.Context) (auth.Subject, bool) {
	user := UserFromContext(ctx)
	if user == nil {
		return auth.Subject{}, false
	}
	return auth.SubjectOf(user), true
}
