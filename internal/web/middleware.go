// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"crypto/rand"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID reuses a client-supplied X-Request-ID or mints a ULID, and
// attaches it to the context for logging.
func (a *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = ulid.MustNew(ulid.Now(), rand.Reader).String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.ContextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		a.metrics.ObserveRequest(route, status, elapsed.Seconds())
		a.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
		)
	})
}

func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
				panic(rec)
			}
			a.logger.ErrorContext(r.Context(), "panic serving request",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			respond(w, r, http.StatusInternalServerError, failed(MsgInternal))
		}()
		next.ServeHTTP(w, r)
	})
}

// loadSession resolves the session cookie to a fresh user record. Missing,
// invalid or stale sessions and blocked users proceed anonymously.
func (a *API) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.sessions.Parse(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				a.logger.DebugContext(r.Context(), "ignoring invalid session", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.users.GetByID(r.Context(), id)
		switch {
		case errors.Is(err, auth.ErrNotFound):
			next.ServeHTTP(w, r)
			return
		case err != nil:
			a.serverError(w, r, "load session user failed", err)
			return
		case user.Blocked:
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func (a *API) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			respond(w, r, http.StatusUnauthorized, failed(MsgLoginRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respond(w, r, http.StatusForbidden, failed(MsgAdminRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}
