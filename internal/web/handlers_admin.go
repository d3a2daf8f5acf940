// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/annotons/genocrowd/internal/annotation"
	"github.com/annotons/genocrowd/internal/auth"
)

type usersResponse struct {
	Users []*UserView `json:"users"`
	Envelope
}

func (a *API) getUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.directory.ListUsers(r.Context())
	if err != nil {
		a.serverError(w, r, "list users failed", err)
		return
	}
	respond(w, r, http.StatusOK, usersResponse{Users: presentUsers(users)})
}

type setAdminRequest struct {
	NewAdmin bool   `json:"newAdmin"`
	Username string `json:"username"`
}

func (a *API) setAdmin(w http.ResponseWriter, r *http.Request) {
	var req setAdminRequest
	if !decode(w, r, &req) {
		return
	}
	err := a.directory.SetAdmin(r.Context(), req.Username, req.NewAdmin)
	a.flagResult(w, r, "set admin failed", err)
}

type setBlockedRequest struct {
	NewBlocked bool   `json:"newBlocked"`
	Username   string `json:"username"`
}

func (a *API) setBlocked(w http.ResponseWriter, r *http.Request) {
	var req setBlockedRequest
	if !decode(w, r, &req) {
		return
	}
	err := a.directory.SetBlocked(r.Context(), req.Username, req.NewBlocked)
	a.flagResult(w, r, "set blocked failed", err)
}

func (a *API) flagResult(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, ok)
	case errors.Is(err, auth.ErrNotFound):
		respond(w, r, http.StatusOK, failed(auth.MsgUserNotFound))
	default:
		a.serverError(w, r, msg, err)
	}
}

type setGroupRequest struct {
	NewNumber int `json:"newNumber"`
}

func (a *API) setGroup(w http.ResponseWriter, r *http.Request) {
	var req setGroupRequest
	if !decode(w, r, &req) {
		return
	}
	err := a.annotation.SetGroupsAmount(r.Context(), req.NewNumber)
	switch {
	case err == nil:
		respond(w, r, http.StatusOK, ok)
	case errors.Is(err, annotation.ErrInvalidGroupsAmount):
		respond(w, r, http.StatusOK, failed(annotation.MsgGroupsAmountInvalid))
	default:
		a.serverError(w, r, "set groups amount failed", err)
	}
}

type groupsResponse struct {
	Groups []annotation.Group `json:"groups"`
	Envelope
}

func (a *API) getGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := a.annotation.ListGroups(r.Context())
	if err != nil {
		a.serverError(w, r, "list groups failed", err)
		return
	}
	respond(w, r, http.StatusOK, groupsResponse{Groups: groups})
}
