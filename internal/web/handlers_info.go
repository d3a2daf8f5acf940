// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"net/http"
)

type helloResponse struct {
	Envelope
	Message string `json:"message"`
}

func (a *API) hello(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, helloResponse{Message: "Welcome to Genocrowd"})
}

type startConfig struct {
	FooterMessage string  `json:"footerMessage"`
	Version       string  `json:"version"`
	Commit        *string `json:"commit"`
	GitURL        string  `json:"gitUrl"`
	ProxyPath     string  `json:"proxyPath"`
	User          any     `json:"user"`
	Logged        bool    `json:"logged"`
}

type startResponse struct {
	Envelope
	Config startConfig `json:"config"`
}

func (a *API) start(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	cfg := startConfig{
		FooterMessage: a.info.FooterMessage,
		Version:       a.info.Version,
		GitURL:        GitURL,
		ProxyPath:     a.info.ProxyPath,
		User:          userOrEmpty(user),
		Logged:        user != nil,
	}
	if a.info.Commit != "" {
		commit := a.info.Commit
		cfg.Commit = &commit
	}
	respond(w, r, http.StatusOK, startResponse{Config: cfg})
}
