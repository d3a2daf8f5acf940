// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package postgres implements auth.UserRepository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/annotons/genocrowd/internal/auth"
)

// Unique constraint names from the users migration.
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// Querier is the subset of *pgxpool.Pool used by UserRepository.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Querier
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

const selectUser = `
	SELECT id, username, email, password, is_admin, blocked, is_external, created
	FROM users`

// Create stores a new user and assigns its ID.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	id := auth.NewID()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password, is_admin, blocked, is_external, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id.String(),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.Blocked,
		user.IsExternal,
		user.Created.Unix(),
	)
	if err != nil {
		if dup := duplicateError(err, user.Username, user.Email); dup != nil {
			return dup
		}
		return oops.With("username", user.Username).Wrap(auth.StoreError("insert user", err))
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id auth.ID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id.String())
	return r.getOne(row, "id", id.String())
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+` WHERE username = $1`, username)
	return r.getOne(row, "username", username)
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, email)
	return r.getOne(row, "email", email)
}

func (r *UserRepository) getOne(row pgx.Row, key, value string) (*auth.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With(key, value).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With(key, value).Wrap(auth.StoreError("get user by "+key, err))
	}
	return user, nil
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := r.pool.Query(ctx, selectUser+` ORDER BY created, username`)
	if err != nil {
		return nil, auth.StoreError("list users", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, auth.StoreError("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, auth.StoreError("iterate users", err)
	}
	return users, nil
}

// UpdateProfile overwrites username and email.
func (r *UserRepository) UpdateProfile(ctx context.Context, id auth.ID, username, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET username = $2, email = $3
		WHERE id = $1
		RETURNING id, username, email, password, is_admin, blocked, is_external, created
	`, id.String(), username, email)

	user, err := scanUser(row)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if dup := duplicateError(err, username, email); dup != nil {
		return nil, dup
	}
	return nil, oops.With("id", id.String()).Wrap(auth.StoreError("update profile", err))
}

// UpdatePassword overwrites the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id auth.ID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id.String(), passwordHash)
	if err != nil {
		return oops.With("id", id.String()).Wrap(auth.StoreError("update password", err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetAdmin overwrites the admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	return r.setFlag(ctx, `UPDATE users SET is_admin = $2 WHERE username = $1`, username, isAdmin)
}

// SetBlocked overwrites the blocked flag.
func (r *UserRepository) SetBlocked(ctx context.Context, username string, blocked bool) error {
	return r.setFlag(ctx, `UPDATE users SET blocked = $2 WHERE username = $1`, username, blocked)
}

func (r *UserRepository) setFlag(ctx context.Context, sql, username string, value bool) error {
	result, err := r.pool.Exec(ctx, sql, username, value)
	if err != nil {
		return oops.With("username", username).Wrap(auth.StoreError("set flag", err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user    auth.User
		id      string
		created int64
	)
	if err := row.Scan(
		&id,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.Blocked,
		&user.IsExternal,
		&created,
	); err != nil {
		return nil, err
	}
	parsed, err := auth.ParseID(id)
	if err != nil {
		return nil, err
	}
	user.ID = parsed
	user.Created = time.Unix(created, 0).UTC()
	return &user, nil
}

// duplicateError maps a unique violation to the auth sentinel for the
// offending column. It returns nil for any other error.
func duplicateError(err error, username, email string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	if pgErr.ConstraintName == emailConstraint {
		return oops.Code(auth.CodeDuplicateEmail).
			With("email", email).
			Wrap(auth.ErrDuplicateEmail)
	}
	return oops.Code(auth.CodeDuplicateUsername).
		With("username", username).
		With("constraint", pgErr.ConstraintName).
		Wrap(auth.ErrDuplicateUsername)
}
