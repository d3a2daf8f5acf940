// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/annotons/genocrowd/pkg/errutil"
)

// Messages for failures raised by the HTTP layer itself.
const (
	MsgLoginRequired  = "Login required"
	MsgAdminRequired  = "Admin required"
	MsgBlockedAccount = "Blocked account"
	MsgInvalidBody    = "Invalid request body"
	MsgInternal       = "Internal server error"
)

// Envelope is the error part shared by every response.
type Envelope struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

var ok = Envelope{}

func failed(msg string) Envelope {
	return Envelope{Error: true, ErrorMessage: msg}
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func (a *API) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errutil.LogErrorContext(r.Context(), a.logger, msg, err)
	respond(w, r, http.StatusInternalServerError, failed(MsgInternal))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		respond(w, r, http.StatusBadRequest, failed(MsgInvalidBody))
		return false
	}
	return true
}
