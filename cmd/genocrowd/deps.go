// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"context"
	"net"

	"github.com/annotons/genocrowd/internal/annotation"
	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/config"
	"github.com/annotons/genocrowd/internal/observability"
	"github.com/annotons/genocrowd/internal/store"
)

// Deps contains injectable dependencies for the subcommands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// BackendsOpener connects to the stores named by the configuration.
	// Default: openBackends, checking the schema with MigratorFactory
	BackendsOpener func(ctx context.Context, cfg *config.Config) (*Backends, error)

	// MigratorFactory creates a schema migrator from a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// Hasher hashes passwords for new and updated accounts.
	// Default: auth.NewArgon2idHasher
	Hasher auth.PasswordHasher
}

// Backends are the opened stores and a function releasing them.
type Backends struct {
	Users       auth.UserRepository
	Annotations annotation.Store
	// Ping reports whether the stores still answer. May be nil.
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.BackendsOpener == nil {
		newMigrator := out.MigratorFactory
		out.BackendsOpener = func(ctx context.Context, cfg *config.Config) (*Backends, error) {
			return openBackends(ctx, cfg, newMigrator)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	if out.Hasher == nil {
		out.Hasher = auth.NewArgon2idHasher()
	}
	return out
}
