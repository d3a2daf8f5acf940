// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"github.com/annotons/genocrowd/internal/auth"
)

// UserView is the wire form of a user. The password hash is never included.
type UserView struct {
	ID         auth.ID `json:"_id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	IsAdmin    bool    `json:"isAdmin"`
	Blocked    bool    `json:"blocked"`
	IsExternal bool    `json:"isExternal"`
	Created    int64   `json:"created"`
	Role       string  `json:"role"`
}

// PresentUser converts u to its wire form. A nil user becomes nil.
func PresentUser(u *auth.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		Blocked:    u.Blocked,
		IsExternal: u.IsExternal,
		Created:    u.Created.Unix(),
		Role:       u.Role(),
	}
}

// userOrEmpty presents u, or an empty object when nobody is logged in.
func userOrEmpty(u *auth.User) any {
	if u == nil {
		return struct{}{}
	}
	return PresentUser(u)
}

func presentUsers(users []*auth.User) []*UserView {
	views := make([]*UserView, 0, len(users))
	for _, u := range users {
		views = append(views, PresentUser(u))
	}
	return views
}
