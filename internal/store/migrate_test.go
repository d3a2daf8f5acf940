// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotons/genocrowd/pkg/errutil"
)

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/genocrowd", "pgx5://u:p@db:5432/genocrowd"},
		{"postgresql://db/genocrowd?sslmode=disable", "pgx5://db/genocrowd?sslmode=disable"},
		{"pgx5://db/genocrowd", "pgx5://db/genocrowd"},
		{"mongodb://localhost", "mongodb://localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	steps          int
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	forced         int
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(n int) error            { m.steps = n; return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Force(v int) error            { m.forced = v; return m.forceErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func TestMigrator_UpDown(t *testing.T) {
	tests := []struct {
		name     string
		mock     *mockMigrate
		run      func(*Migrator) error
		wantCode string
	}{
		{"up applies", &mockMigrate{}, (*Migrator).Up, ""},
		{"up without changes", &mockMigrate{upErr: migrate.ErrNoChange}, (*Migrator).Up, ""},
		{"up fails", &mockMigrate{upErr: errors.New("syntax error")}, (*Migrator).Up, "MIGRATION_UP_FAILED"},
		{"down rolls back", &mockMigrate{}, (*Migrator).Down, ""},
		{"down without changes", &mockMigrate{downErr: migrate.ErrNoChange}, (*Migrator).Down, ""},
		{"down fails", &mockMigrate{downErr: errors.New("locked")}, (*Migrator).Down, "MIGRATION_DOWN_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(&Migrator{m: tt.mock})
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestMigrator_Steps(t *testing.T) {
	mock := &mockMigrate{}
	m := &Migrator{m: mock}
	require.NoError(t, m.Steps(-1))
	assert.Equal(t, -1, mock.steps)

	mock.stepsErr = migrate.ErrNoChange
	require.NoError(t, m.Steps(1))

	mock.stepsErr = errors.New("boom")
	err := m.Steps(2)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_STEPS_FAILED")
	errutil.AssertErrorContext(t, err, "steps", 2)
}

func TestMigrator_Version(t *testing.T) {
	t.Run("reports version and dirty flag", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionVal: 2, dirty: true}}
		v, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), v)
		assert.True(t, dirty)
	})

	t.Run("nil version is zero", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
		v, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), v)
		assert.False(t, dirty)
	})

	t.Run("driver error", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionErr: errors.New("conn refused")}}
		_, _, err := m.Version()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_Force(t *testing.T) {
	mock := &mockMigrate{}
	m := &Migrator{m: mock}

	require.NoError(t, m.Force(1))
	assert.Equal(t, 1, mock.forced)

	err := m.Force(-3)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")

	mock.forceErr = errors.New("boom")
	err = m.Force(2)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name      string
		mock      *mockMigrate
		component string
	}{
		{"clean", &mockMigrate{}, ""},
		{"source", &mockMigrate{closeSourceErr: errors.New("src")}, "source"},
		{"database", &mockMigrate{closeDbErr: errors.New("db")}, "database"},
		{"both", &mockMigrate{closeSourceErr: errors.New("src"), closeDbErr: errors.New("db")}, "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: tt.mock}).Close()
			if tt.component == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.component)
		})
	}
}

func TestMigrator_PendingAndApplied(t *testing.T) {
	catalog, err := Catalog()
	require.NoError(t, err)
	require.NotEmpty(t, catalog)
	all := make([]uint, 0, len(catalog))
	for _, mig := range catalog {
		all = append(all, mig.Version)
	}
	latest := all[len(all)-1]

	t.Run("fresh database", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
		pending, err := m.PendingMigrations()
		require.NoError(t, err)
		assert.Equal(t, all, pending)

		applied, err := m.AppliedMigrations()
		require.NoError(t, err)
		assert.Empty(t, applied)
	})

	t.Run("at latest", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionVal: latest}}
		pending, err := m.PendingMigrations()
		require.NoError(t, err)
		assert.Empty(t, pending)

		applied, err := m.AppliedMigrations()
		require.NoError(t, err)
		assert.Equal(t, all, applied)
	})

	t.Run("after first", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionVal: 1}}
		pending, err := m.PendingMigrations()
		require.NoError(t, err)
		assert.Equal(t, all[1:], pending)
	})

	t.Run("version error", func(t *testing.T) {
		m := &Migrator{m: &mockMigrate{versionErr: errors.New("down")}}
		_, err := m.PendingMigrations()
		require.Error(t, err)
		_, err = m.AppliedMigrations()
		require.Error(t, err)
	})
}

func TestCatalog(t *testing.T) {
	catalog, err := Catalog()
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, Name: "000001_users"},
		{Version: 2, Name: "000002_users_created_index"},
	}, catalog)
}

func TestMigrationName(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_users", name)

	name, err = MigrationName(9999)
	require.NoError(t, err)
	assert.Empty(t, name)
}
