// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package web

import (
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/annotons/genocrowd/internal/auth"
)

const sessionIssuer = "genocrowd"

var (
	// ErrNoSession means the request carries no session cookie.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession means the cookie is expired, tampered with or malformed.
	ErrInvalidSession = errors.New("invalid session")
)

// SessionClaims is the signed cookie payload. Subject holds the user ID.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// SessionOptions configures a SessionManager.
type SessionOptions struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Path       string
	Secure     bool
}

// SessionManager issues and verifies HS256-signed session cookies. The
// cookie only identifies the user; flags are re-read from the store on
// every request.
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	path       string
	secure     bool
	now        func() time.Time
}

// NewSessionManager creates a SessionManager. The secret must be at least
// 32 bytes.
func NewSessionManager(opts SessionOptions) (*SessionManager, error) {
	if len(opts.Secret) < 32 {
		return nil, oops.Code("SESSION_SECRET_TOO_SHORT").
			With("length", len(opts.Secret)).
			Errorf("session secret must be at least 32 bytes")
	}
	if opts.TTL <= 0 {
		return nil, oops.Code("SESSION_TTL_INVALID").Errorf("session ttl must be positive")
	}
	if opts.CookieName == "" {
		opts.CookieName = "genocrowd_session"
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &SessionManager{
		secret:     opts.Secret,
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		path:       opts.Path,
		secure:     opts.Secure,
		now:        time.Now,
	}, nil
}

// Issue signs a session for user and sets it as a cookie on w.
func (m *SessionManager) Issue(w http.ResponseWriter, user *auth.User) error {
	now := m.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
			Issuer:    sessionIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: user.Username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return oops.Code("SESSION_SIGN_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     m.path,
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     m.path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse verifies the session cookie on r and returns the user ID it names.
func (m *SessionManager) Parse(r *http.Request) (auth.ID, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return auth.NilID, ErrNoSession
	}

	claims := &SessionClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return auth.NilID, oops.Code("SESSION_INVALID").Wrap(errors.Join(ErrInvalidSession, err))
	}

	id, err := auth.ParseID(claims.Subject)
	if err != nil {
		return auth.NilID, oops.Code("SESSION_INVALID").Wrap(errors.Join(ErrInvalidSession, err))
	}
	return id, nil
}
