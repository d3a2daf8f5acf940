// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package config loads process configuration from defaults, a YAML file,
// GENOCROWD_* environment variables and command-line flags, in that order.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override, e.g.
// GENOCROWD_SESSION_SECRET sets session.secret.
const EnvPrefix = "GENOCROWD_"

// Store backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// MinSecretLength is the shortest accepted session signing secret.
const MinSecretLength = 32

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Store    StoreConfig    `koanf:"store"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Postgres PostgresConfig `koanf:"postgres"`
	Session  SessionConfig  `koanf:"session"`
	Startup  StartupConfig  `koanf:"startup"`
}

// ServerConfig configures the API listener and the values /api/start reports.
type ServerConfig struct {
	Addr          string `koanf:"addr"`
	ProxyPath     string `koanf:"proxy_path"`
	FooterMessage string `koanf:"footer_message"`
}

// MetricsConfig configures the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StoreConfig selects where user records live. Annotation data is always in MongoDB.
type StoreConfig struct {
	Backend string `koanf:"backend"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type PostgresConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Secret     string        `koanf:"secret"`
	TTL        time.Duration `koanf:"ttl"`
	CookieName string        `koanf:"cookie_name"`
	Secure     bool          `koanf:"secure"`
}

type StartupConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":5000", ProxyPath: "/"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
		Store:   StoreConfig{Backend: BackendMongo},
		Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "genocrowd"},
		Session: SessionConfig{TTL: 24 * time.Hour, CookieName: "genocrowd_session"},
		Startup: StartupConfig{Timeout: 30 * time.Second},
	}
}

// FlagKeys maps command-line flag names to configuration keys. Flags not
// listed here are ignored by Load.
var FlagKeys = map[string]string{
	"addr":           "server.addr",
	"proxy-path":     "server.proxy_path",
	"metrics-addr":   "metrics.addr",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"store":          "store.backend",
	"mongo-uri":      "mongo.uri",
	"mongo-database": "mongo.database",
	"postgres-url":   "postgres.url",
}

// envKey turns GENOCROWD_SERVER_PROXY_PATH into server.proxy_path. The
// first underscore separates the section from the field.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, field, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + field
}

// Load builds a Config. path may be empty, and flags may be nil. Only flags
// the user changed override earlier sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, oops.Code("CONFIG_NOT_FOUND").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// Validate checks the configuration is usable for serving.
func (c *Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	if c.Server.Addr == "" {
		return invalid("server.addr", "server.addr is required")
	}
	if !strings.HasPrefix(c.Server.ProxyPath, "/") {
		return invalid("server.proxy_path", "server.proxy_path must start with '/', got %q", c.Server.ProxyPath)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}

	switch c.Store.Backend {
	case BackendMongo:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return invalid("postgres.url", "postgres.url is required when store.backend is postgres")
		}
	default:
		return invalid("store.backend", "store.backend must be 'mongo' or 'postgres', got %q", c.Store.Backend)
	}
	// annotation data lives in MongoDB regardless of the credential backend
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return invalid("mongo.uri", "mongo.uri and mongo.database are required")
	}

	if len(c.Session.Secret) < MinSecretLength {
		return invalid("session.secret", "session.secret must be at least %d bytes", MinSecretLength)
	}
	if c.Session.TTL <= 0 {
		return invalid("session.ttl", "session.ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return invalid("session.cookie_name", "session.cookie_name is required")
	}
	if c.Startup.Timeout <= 0 {
		return invalid("startup.timeout", "startup.timeout must be positive")
	}
	return nil
}
