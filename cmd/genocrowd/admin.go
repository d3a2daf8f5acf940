// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/annotons/genocrowd/internal/auth"
)

// adminPasswordEnv supplies the password when --password is not given.
const adminPasswordEnv = "GENOCROWD_ADMIN_PASSWORD"

type createAdminConfig struct {
	username string
	email    string
	password string
}

func newCreateAdminCmd(opts *globalOptions, deps *Deps) *cobra.Command {
	cfg := &createAdminConfig{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Register an admin account or promote an existing one",
		Long: `Registers a new account with admin rights. When the username is
already registered, the existing account is promoted and its password is left
unchanged. The password may be given in ` + adminPasswordEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.password == "" {
				cfg.password = os.Getenv(adminPasswordEnv)
			}
			return withBackends(cmd, opts, deps, func(ctx context.Context, b *Backends) error {
				return runCreateAdmin(ctx, cmd, b, deps.Hasher, cfg)
			})
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "account username")
	cmd.Flags().StringVar(&cfg.email, "email", "", "account email (required for new accounts)")
	cmd.Flags().StringVar(&cfg.password, "password", "", "account password (required for new accounts)")
	_ = cmd.MarkFlagRequired("username") //nolint:errcheck // flag is defined above

	return cmd
}

func runCreateAdmin(ctx context.Context, cmd *cobra.Command, b *Backends, hasher auth.PasswordHasher, cfg *createAdminConfig) error {
	directory := auth.NewDirectory(b.Users)

	_, err := b.Users.GetByUsername(ctx, cfg.username)
	switch {
	case err == nil:
		if err := directory.SetAdmin(ctx, cfg.username, true); err != nil {
			return err
		}
		cmd.Printf("Promoted %s to admin\n", cfg.username)
		return nil
	case !errors.Is(err, auth.ErrNotFound):
		return err
	}

	svc, err := newAuthService(b, hasher)
	if err != nil {
		return err
	}
	result, err := svc.Register(ctx, auth.Registration{
		Username:     cfg.username,
		Email:        cfg.email,
		Password:     cfg.password,
		PasswordConf: cfg.password,
	})
	if err != nil {
		return err
	}
	if result.Error {
		return oops.Code("ADMIN_REGISTRATION_REJECTED").
			With("username", cfg.username).
			Errorf("%s", strings.Join(result.ErrorMessages, "; "))
	}

	if err := directory.SetAdmin(ctx, cfg.username, true); err != nil {
		return err
	}
	cmd.Printf("Created admin %s\n", cfg.username)
	return nil
}
