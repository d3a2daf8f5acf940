// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/annotons/genocrowd/internal/store"
)

// newMigrateCmd creates the migrate command group.
func newMigrateCmd(opts *globalOptions, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL credential store schema",
		Long: `Apply or roll back the schema of the PostgreSQL credential store.
The URL comes from postgres.url (--postgres-url or GENOCROWD_POSTGRES_URL).`,
	}

	var steps int
	var all bool

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, opts, deps, func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Printf("Applied %d migration(s)\n", len(pending))
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  `Roll back the last --steps migrations (default 1), or every migration with --all.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && steps < 1 {
				return oops.Code("INVALID_STEPS").Errorf("--steps must be at least 1, got %d", steps)
			}
			return withMigrator(cmd, opts, deps, func(m Migrator) error {
				if all {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("Rolled back all migrations")
					return nil
				}
				if err := m.Steps(-steps); err != nil {
					return err
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.Flags().BoolVar(&all, "all", false, "roll back every migration")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, opts, deps, func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				line := fmt.Sprintf("Version: %d", v)
				if name, _ := store.MigrationName(v); name != "" { //nolint:errcheck // name is cosmetic
					line += " (" + name + ")"
				}
				if dirty {
					line += " [dirty]"
				}
				cmd.Println(line)

				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				names := make([]string, 0, len(pending))
				for _, p := range pending {
					name, _ := store.MigrationName(p) //nolint:errcheck // name is cosmetic
					if name == "" {
						name = fmt.Sprintf("%06d", p)
					}
					names = append(names, name)
				}
				if len(names) == 0 {
					cmd.Println("Pending: none")
				} else {
					cmd.Println("Pending: " + strings.Join(names, ", "))
				}
				return nil
			})
		},
	}

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Long:  `Mark the schema as being at <version> and clear the dirty flag, after a failed migration was repaired by hand.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, opts, deps, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Forced version %d\n", v)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, versionCmd, force)
	return cmd
}

// withMigrator loads the configuration, opens a migrator and runs fn.
func withMigrator(cmd *cobra.Command, opts *globalOptions, deps *Deps, fn func(Migrator) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "postgres.url").
			Errorf("postgres.url is required")
	}

	m, err := deps.MigratorFactory(cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Debug("error closing migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

// parseForceVersion reads a migration version. Leading whitespace is
// ignored and parsing stops at the first non-digit.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return v, nil
}
