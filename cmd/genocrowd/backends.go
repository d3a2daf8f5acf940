// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	annotationmongo "github.com/annotons/genocrowd/internal/annotation/mongodb"
	"github.com/annotons/genocrowd/internal/auth"
	authmongo "github.com/annotons/genocrowd/internal/auth/mongodb"
	authpostgres "github.com/annotons/genocrowd/internal/auth/postgres"
	"github.com/annotons/genocrowd/internal/config"
	"github.com/annotons/genocrowd/internal/logging"
	"github.com/annotons/genocrowd/internal/store"
)

// openBackends connects to MongoDB for annotation data and to the configured
// credential store. A Postgres credential store must be fully migrated.
func openBackends(ctx context.Context, cfg *config.Config, newMigrator func(string) (Migrator, error)) (*Backends, error) {
	client, db, err := store.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, store.DefaultRetryPolicy)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "connected to mongo", "database", cfg.Mongo.Database)

	backends := &Backends{
		Annotations: annotationmongo.NewStore(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if err := checkSchema(cfg.Postgres.URL, newMigrator); err != nil {
			_ = client.Disconnect(ctx) //nolint:errcheck // schema error takes precedence
			return nil, err
		}
		pool, err := store.ConnectPostgres(ctx, cfg.Postgres.URL, store.DefaultRetryPolicy)
		if err != nil {
			_ = client.Disconnect(ctx) //nolint:errcheck // connect error takes precedence
			return nil, err
		}
		slog.InfoContext(ctx, "connected to postgres")

		backends.Users = authpostgres.NewUserRepository(pool)
		mongoPing := backends.Ping
		backends.Ping = func(ctx context.Context) error {
			return errors.Join(mongoPing(ctx), pool.Ping(ctx))
		}
		backends.Close = func(ctx context.Context) error {
			pool.Close()
			return client.Disconnect(ctx)
		}
	default:
		if err := authmongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx) //nolint:errcheck // index error takes precedence
			return nil, err
		}
		backends.Users = authmongo.NewUserRepository(db)
	}

	return backends, nil
}

// checkSchema fails when migrations are pending on the Postgres database.
func checkSchema(databaseURL string, newMigrator func(string) (Migrator, error)) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Debug("error closing migrator", "error", closeErr)
		}
	}()

	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return oops.Code("MIGRATIONS_PENDING").
			With("pending", pending).
			Hint("run 'genocrowd migrate up'").
			Errorf("%d database migrations are pending", len(pending))
	}
	return nil
}

// closeBackends releases b, logging rather than returning a failure.
func closeBackends(ctx context.Context, b *Backends) {
	if b == nil || b.Close == nil {
		return
	}
	if err := b.Close(ctx); err != nil {
		slog.WarnContext(ctx, "error closing stores", "error", err)
	}
}

// newAuthService builds the account service over b.
func newAuthService(b *Backends, hasher auth.PasswordHasher) (*auth.Service, error) {
	return auth.NewAuthServiceWithLogger(b.Users, hasher, slog.Default())
}

// withBackends loads the configuration, opens the stores within the
// startup timeout and runs fn. The stores are closed when fn returns.
func withBackends(cmd *cobra.Command, opts *globalOptions, deps *Deps, fn func(ctx context.Context, b *Backends) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if _, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Startup.Timeout)
	defer cancel()

	backends, err := deps.BackendsOpener(ctx, cfg)
	if err != nil {
		return oops.With("operation", "open stores").Wrap(err)
	}
	defer closeBackends(context.Background(), backends)

	return fn(ctx, backends)
}
