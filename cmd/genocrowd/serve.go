// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/annotons/genocrowd/internal/annotation"
	"github.com/annotons/genocrowd/internal/auth"
	"github.com/annotons/genocrowd/internal/config"
	"github.com/annotons/genocrowd/internal/logging"
	"github.com/annotons/genocrowd/internal/observability"
	"github.com/annotons/genocrowd/internal/web"
)

const (
	serviceName     = "genocrowd"
	shutdownTimeout = 10 * time.Second

	readinessPingTimeout = 2 * time.Second
)

func newServeCmd(opts *globalOptions, deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API and, unless metrics.addr is empty, the
observability server. The process drains on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg, deps)
		},
	}
}

// runServe starts the API and blocks until ctx ends, a signal arrives, or a
// server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *Deps) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "starting genocrowd",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Backend,
		"version", version,
	)

	startCtx, cancelStart := context.WithTimeout(ctx, cfg.Startup.Timeout)
	backends, err := deps.BackendsOpener(startCtx, cfg)
	cancelStart()
	if err != nil {
		return oops.With("operation", "open stores").Wrap(err)
	}
	defer closeBackends(context.Background(), backends)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readiness := &observability.Readiness{}
	var metrics *observability.Metrics
	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, readinessCheck(readiness, backends))
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		logger.InfoContext(ctx, "observability server started", "addr", obsServer.Addr())
	}

	handler, err := buildHandler(cfg, backends, deps.Hasher, metrics, logger)
	if err != nil {
		stopObservability(obsServer)
		return err
	}

	listener, err := deps.ListenerFactory("tcp", cfg.Server.Addr)
	if err != nil {
		stopObservability(obsServer)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	readiness.MarkReady()
	cmd.Println("genocrowd listening on " + listener.Addr().String())
	logger.InfoContext(ctx, "api server ready", "addr", listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = oops.Code("SERVE_FAILED").Wrap(err)
	}

	readiness.MarkNotReady()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// buildHandler wires the services over backends and mounts the API under
// the configured proxy path.
func buildHandler(cfg *config.Config, backends *Backends, hasher auth.PasswordHasher, metrics *observability.Metrics, logger *slog.Logger) (http.Handler, error) {
	authService, err := newAuthService(backends, hasher)
	if err != nil {
		return nil, err
	}
	annotations, err := annotation.NewService(backends.Annotations, logger)
	if err != nil {
		return nil, err
	}
	sessions, err := web.NewSessionManager(web.SessionOptions{
		Secret:     []byte(cfg.Session.Secret),
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Path:       cfg.Server.ProxyPath,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return nil, err
	}

	api, err := web.New(web.Deps{
		Auth:       authService,
		Directory:  auth.NewDirectory(backends.Users),
		Users:      backends.Users,
		Annotation: annotations,
		Sessions:   sessions,
		Metrics:    metrics,
		Logger:     logger,
		Info: web.Info{
			FooterMessage: cfg.Server.FooterMessage,
			Version:       version,
			Commit:        buildCommit(),
			ProxyPath:     cfg.Server.ProxyPath,
		},
	})
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(cfg.Server.ProxyPath, "/")
	if prefix == "" {
		return api.Router(), nil
	}
	return http.StripPrefix(prefix, api.Router()), nil
}

// readinessCheck reports ready while the API is accepting requests and the
// stores answer a ping.
func readinessCheck(readiness *observability.Readiness, backends *Backends) observability.ReadinessChecker {
	return func() bool {
		if !readiness.Ready() {
			return false
		}
		if backends.Ping == nil {
			return true
		}
		ctx, cancel := context.WithTimeout(context.Background(), readinessPingTimeout)
		defer cancel()
		return backends.Ping(ctx) == nil
	}
}

func stopObservability(s ObservabilityServer) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors cancels the process context when a server fails.
// It exits when an error arrives, the channel closes, or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
