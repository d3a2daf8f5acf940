// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/annotons/genocrowd/internal/annotation"
)

func newInitGroupsCmd(opts *globalOptions, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "init-groups",
		Short: "Create the group record",
		Long: `Creates the group record with the default number of groups.
This command is idempotent - an existing record is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackends(cmd, opts, deps, func(ctx context.Context, b *Backends) error {
				svc, err := annotation.NewService(b.Annotations, slog.Default())
				if err != nil {
					return err
				}
				created, err := svc.InitGroups(ctx)
				if err != nil {
					return err
				}
				n, err := svc.NumberOfGroups(ctx)
				if err != nil {
					return err
				}
				if created {
					cmd.Printf("Groups initialized (%d groups)\n", n)
				} else {
					cmd.Printf("Groups already initialized (%d groups)\n", n)
				}
				return nil
			})
		},
	}
}
