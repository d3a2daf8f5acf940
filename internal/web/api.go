// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package web serves the genocrowd JSON API.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/annotons/genocrowd/internal/annotation"
	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/observability"
)

// GitURL is reported by /api/start.
const GitURL = "https://github.com/annotons/genocrowd"

// Info is the static part of the /api/start configuration.
type Info struct {
	FooterMessage string
	Version       string
	// Commit is empty when the build carries no VCS revision.
	Commit    string
	ProxyPath string
}

// Deps are the collaborators of the API.
type Deps struct {
	Auth       *auth.Service
	Directory  *auth.Directory
	Users      auth.UserRepository
	Annotation *annotation.Service
	Sessions   *SessionManager
	// Metrics may be nil.
	Metrics *observability.Metrics
	Logger  *slog.Logger
	Info    Info
}

// API holds the handlers.
type API struct {
	auth       *auth.Service
	directory  *auth.Directory
	users      auth.UserRepository
	annotation *annotation.Service
	sessions   *SessionManager
	metrics    *observability.Metrics
	logger     *slog.Logger
	info       Info
}

// New checks deps and builds an API.
func New(deps Deps) (*API, error) {
	switch {
	case deps.Auth == nil:
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("auth service is required")
	case deps.Directory == nil:
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("user directory is required")
	case deps.Users == nil:
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("users repository is required")
	case deps.Annotation == nil:
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("annotation service is required")
	case deps.Sessions == nil:
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("session manager is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	info := deps.Info
	if info.ProxyPath == "" {
		info.ProxyPath = "/"
	}
	return &API{
		auth:       deps.Auth,
		directory:  deps.Directory,
		users:      deps.Users,
		annotation: deps.Annotation,
		sessions:   deps.Sessions,
		metrics:    deps.Metrics,
		logger:     logger,
		info:       info,
	}, nil
}

// Router returns the chi router serving every /api route.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(a.requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(a.recoverer)
	r.Use(a.loadSession)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusNotFound, failed("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusMethodNotAllowed, failed("Method not allowed"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", a.hello)
		r.Get("/start", a.start)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", a.signup)
			r.Post("/login", a.login)
			r.Get("/logout", a.logout)

			r.Group(func(r chi.Router) {
				r.Use(a.requireLogin)
				r.Post("/profile", a.updateProfile)
				r.Post("/password", a.updatePassword)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(a.requireLogin, a.requireAdmin)
			r.Get("/getusers", a.getUsers)
			r.Post("/setadmin", a.setAdmin)
			r.Post("/setblocked", a.setBlocked)
			r.Post("/setgroup", a.setGroup)
			r.Get("/getgroups", a.getGroups)
		})

		r.Route("/data", func(r chi.Router) {
			r.Use(a.requireLogin)
			r.Get("/positions", a.positions)
			r.Get("/current", a.currentAnnotation)
			r.Post("/current", a.checkout)
			r.Post("/answers", a.storeAnswer)
			r.Get("/answers/count", a.countAnswers)
		})
	})

	return r
}
