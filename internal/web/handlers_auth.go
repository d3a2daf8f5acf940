// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"net/http"

	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/observability"
)

type signupResponse struct {
	Error         bool      `json:"error"`
	ErrorMessages []string  `json:"errorMessage"`
	User          *UserView `json:"user"`
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var reg auth.Registration
	if !decode(w, r, &reg) {
		return
	}

	result, err := a.auth.Register(r.Context(), reg)
	if err != nil {
		a.metrics.Registration(observability.RegistrationError)
		a.serverError(w, r, "signup failed", err)
		return
	}
	if result.Error {
		a.metrics.Registration(observability.RegistrationRejected)
		respond(w, r, http.StatusOK, signupResponse{Error: true, ErrorMessages: result.ErrorMessages})
		return
	}
	a.metrics.Registration(observability.RegistrationCreated)

	if err := a.sessions.Issue(w, result.User); err != nil {
		a.serverError(w, r, "issue session failed", err)
		return
	}
	respond(w, r, http.StatusOK, signupResponse{ErrorMessages: []string{}, User: PresentUser(result.User)})
}

type userResponse struct {
	Envelope
	User *UserView `json:"user"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if !decode(w, r, &creds) {
		return
	}

	result, err := a.auth.Authenticate(r.Context(), creds)
	if err != nil {
		a.metrics.AuthAttempt(observability.AuthError)
		a.serverError(w, r, "login failed", err)
		return
	}
	if result.Error {
		outcome := observability.AuthInvalidPassword
		if result.Code == auth.CodeUserNotFound {
			outcome = observability.AuthNotFound
		}
		a.metrics.AuthAttempt(outcome)
		respond(w, r, http.StatusOK, userResponse{Envelope: failed(result.ErrorMessage)})
		return
	}
	if result.User.Blocked {
		a.metrics.AuthAttempt(observability.AuthBlocked)
		a.logger.InfoContext(r.Context(), "blocked account refused", "user_id", result.User.ID.String())
		respond(w, r, http.StatusOK, userResponse{Envelope: failed(MsgBlockedAccount)})
		return
	}

	a.auth.RehashIfNeeded(r.Context(), result.User, creds.Password)
	if err := a.sessions.Issue(w, result.User); err != nil {
		a.serverError(w, r, "issue session failed", err)
		return
	}
	a.metrics.AuthAttempt(observability.AuthSuccess)
	respond(w, r, http.StatusOK, userResponse{User: PresentUser(result.User)})
}

type logoutResponse struct {
	User   struct{} `json:"user"`
	Logged bool     `json:"logged"`
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Clear(w)
	respond(w, r, http.StatusOK, logoutResponse{})
}

// resultResponse renders an auth.Result, falling back to the caller's
// current record when the operation failed.
func resultResponse(result *auth.Result, current *auth.User) userResponse {
	if result.Error {
		return userResponse{Envelope: failed(result.ErrorMessage), User: PresentUser(current)}
	}
	return userResponse{User: PresentUser(result.User)}
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd auth.ProfileUpdate
	if !decode(w, r, &upd) {
		return
	}
	user := UserFromContext(r.Context())

	result, err := a.auth.UpdateProfile(r.Context(), auth.SubjectOf(user), upd)
	if err != nil {
		a.serverError(w, r, "update profile failed", err)
		return
	}
	respond(w, r, http.StatusOK, resultResponse(result, user))
}

func (a *API) updatePassword(w http.ResponseWriter, r *http.Request) {
	var upd auth.PasswordUpdate
	if !decode(w, r, &upd) {
		return
	}
	user := UserFromContext(r.Context())

	result, err := a.auth.UpdatePassword(r.Context(), auth.SubjectOf(user), upd)
	if err != nil {
		a.serverError(w, r, "update password failed", err)
		return
	}
	respond(w, r, http.StatusOK, resultResponse(result, user))
}
