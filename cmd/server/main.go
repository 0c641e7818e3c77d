// Tunegraph - Social and Content Song Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegraph

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/tunegraph/internal/config"
	"github.com/tomtom215/tunegraph/internal/logging"
	"github.com/tomtom215/tunegraph/internal/metrics"
	"github.com/tomtom215/tunegraph/internal/supervisor"
	"github.com/tomtom215/tunegraph/internal/supervisor/services"
	"github.com/tomtom215/tunegraph/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("server stopped with error")
	}
	logging.Info().Msg("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("cluster_cache", cfg.Storage.ClusterCache).
		Bool("tracing", cfg.Tracing.Enabled).
		Msg("starting tunegraph")

	cfg.Tracing.ServiceVersion = version
	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})

	if !cfg.Storage.Badger.InMemory && cfg.Storage.GCInterval > 0 {
		tree.AddDataService(services.NewIntervalService("badger-value-log-gc",
			cfg.Storage.GCInterval, services.ValueLogGC(a.store)))
	}
	if a.clusterStore != nil {
		tree.AddDataService(services.NewIntervalService("cluster-cache-sweep",
			cfg.Cache.SweepInterval, services.CacheSweep(a.clusterStore)))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("services did not stop before the shutdown timeout")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
