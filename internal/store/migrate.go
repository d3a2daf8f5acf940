// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package store

import (
	"embed"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateIface abstracts golang-migrate so the Migrator can be tested
// without a database.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the relational credential store schema.
type Migrator struct {
	m migrateIface
}

// NewMigrator creates a Migrator for a PostgreSQL URL. postgres:// and
// postgresql:// schemes are rewritten to pgx5:// for the pgx/v5 driver.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}

	return &Migrator{m: m}, nil
}

// migrateURL points a libpq-style URL at the golang-migrate pgx/v5 driver.
func migrateURL(databaseURL string) string {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if ok && (scheme == "postgres" || scheme == "postgresql") {
		return "pgx5://" + rest
	}
	return databaseURL
}

// apply runs one golang-migrate operation. An up-to-date schema is not an
// error.
func apply(code string, op func() error, kv ...any) error {
	err := op()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return oops.Code(code).With(kv...).Wrap(err)
}

// Up brings the users schema to the latest embedded version.
func (m *Migrator) Up() error {
	return apply("MIGRATION_UP_FAILED", m.m.Up)
}

// Down rolls back every migration. It drops the users table and its rows.
func (m *Migrator) Down() error {
	return apply("MIGRATION_DOWN_FAILED", m.m.Down)
}

// Steps moves n versions up, or -n versions down when n is negative.
func (m *Migrator) Steps(n int) error {
	return apply("MIGRATION_STEPS_FAILED", func() error { return m.m.Steps(n) }, "steps", n)
}

// Version reports the applied schema version. A database that has never
// been migrated is at version 0 and clean.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running any SQL.
// Operators use it after repairing a migration that failed halfway.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").With("version", version).Errorf("version must be non-negative")
	}
	return apply("MIGRATION_FORCE_FAILED", func() error { return m.m.Force(version) }, "version", version)
}

// Close releases the migration source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr == nil && dbErr == nil {
		return nil
	}
	failed := oops.Code("MIGRATION_CLOSE_FAILED")
	switch {
	case dbErr == nil:
		return failed.With("component", "source").Wrap(srcErr)
	case srcErr == nil:
		return failed.With("component", "database").Wrap(dbErr)
	}
	return failed.With("component", "both").Wrap(errors.Join(srcErr, dbErr))
}

// Migration is one embedded schema step of the credential store.
type Migration struct {
	Version uint
	// Name is the file stem, e.g. "000001_users".
	Name string
}

// Catalog lists the embedded up migrations by ascending version. Files
// whose names do not start with a numeric version are skipped with a
// warning.
func Catalog() ([]Migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("operation", "read migrations dir").Wrap(err)
	}

	catalog := make([]Migration, 0, len(entries)/2)
	for _, entry := range entries {
		stem, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, _, _ := strings.Cut(stem, "_")
		version, err := strconv.ParseUint(prefix, 10, 0)
		if err != nil {
			slog.Warn("skipping migration without a numeric version",
				"filename", entry.Name(),
				"error", err)
			continue
		}
		catalog = append(catalog, Migration{Version: uint(version), Name: stem})
	}
	slices.SortFunc(catalog, func(a, b Migration) int { return int(a.Version) - int(b.Version) })
	return catalog, nil
}

// split partitions the catalog around the database's current version.
func (m *Migrator) split(operation string) (applied, pending []uint, err error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, nil, oops.With("operation", operation).Wrap(err)
	}
	catalog, err := Catalog()
	if err != nil {
		return nil, nil, err
	}
	for _, mig := range catalog {
		if mig.Version <= current {
			applied = append(applied, mig.Version)
		} else {
			pending = append(pending, mig.Version)
		}
	}
	return applied, pending, nil
}

// PendingMigrations returns the versions Up would apply, ascending. A
// non-empty result keeps serve from starting on the postgres backend.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	_, pending, err := m.split("get pending migrations")
	return pending, err
}

// AppliedMigrations returns the versions already applied, ascending.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	applied, _, err := m.split("get applied migrations")
	return applied, err
}

// MigrationName returns the file stem of version, or "" when the catalog
// has no such version.
func MigrationName(version uint) (string, error) {
	catalog, err := Catalog()
	if err != nil {
		return "", err
	}
	for _, mig := range catalog {
		if mig.Version == version {
			return mig.Name, nil
		}
	}
	return "", nil
}
