// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// RetryPolicy bounds how long startup waits for a backing store.
type RetryPolicy struct {
	Base       time.Duration
	MaxDelay   time.Duration
	MaxRetries uint64
}

// DefaultRetryPolicy retries for roughly thirty seconds.
var DefaultRetryPolicy = RetryPolicy{
	Base:       250 * time.Millisecond,
	MaxDelay:   5 * time.Second,
	MaxRetries: 8,
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.Base)
	b = retry.WithMaxRetries(p.MaxRetries, b)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return b
}

// WaitReady calls ping until it succeeds, the policy is exhausted, or ctx
// ends. Each failed attempt is logged at warn level.
func WaitReady(ctx context.Context, name string, policy RetryPolicy, ping func(context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			slog.WarnContext(ctx, "store not ready",
				"store", name,
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_UNAVAILABLE").
			With("store", name).
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

// ConnectMongo dials MongoDB and waits for the primary to answer a ping.
func ConnectMongo(ctx context.Context, uri, database string, policy RetryPolicy) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, oops.Code("STORE_CONNECT_FAILED").With("store", "mongo").Wrap(err)
	}
	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	if err := WaitReady(ctx, "mongo", policy, ping); err != nil {
		_ = client.Disconnect(context.Background()) //nolint:errcheck // readiness error takes precedence
		return nil, nil, err
	}
	return client, client.Database(database), nil
}

// ConnectPostgres opens a pgx pool and waits for the server to answer a ping.
func ConnectPostgres(ctx context.Context, url string, policy RetryPolicy) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("store", "postgres").Wrap(err)
	}
	if err := WaitReady(ctx, "postgres", policy, pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
