// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/annotons/genocrowd/internal/config"
	"github.com/annotons/genocrowd/internal/xdg"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the genocrowd CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "genocrowd",
		Short: "Genocrowd - crowd-sourced gene annotation",
		Long: `Genocrowd serves the JSON API behind the crowd annotation frontend:
accounts and sessions, administration, and gene annotation checkout.`,
		Version:       versionString(),
		SilenceUsage:  true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/genocrowd/config.yaml)")
	defaults := config.Default()
	flags.String("addr", defaults.Server.Addr, "API listen address")
	flags.String("proxy-path", defaults.Server.ProxyPath, "path prefix the API is served under")
	flags.String("metrics-addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", defaults.Log.Format, "log format (json or text)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("store", defaults.Store.Backend, "credential store backend (mongo or postgres)")
	flags.String("mongo-uri", defaults.Mongo.URI, "MongoDB connection URI")
	flags.String("mongo-database", defaults.Mongo.Database, "MongoDB database name")
	flags.String("postgres-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(newServeCmd(opts, deps))
	cmd.AddCommand(newMigrateCmd(opts, deps))
	cmd.AddCommand(newInitGroupsCmd(opts, deps))
	cmd.AddCommand(newSeedGenesCmd(opts, deps))
	cmd.AddCommand(newCreateAdminCmd(opts, deps))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the configuration for cmd, honoring --config (or the XDG
// config file when present), the environment and any flags the user set.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	path := opts.configFile
	if path == "" {
		path = xdg.DefaultConfigFile()
	}
	return config.Load(path, cmd.Flags())
}
