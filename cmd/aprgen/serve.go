package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sebastiankruger/apr-datagen/internal/api"
	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/config"
	"github.com/sebastiankruger/apr-datagen/internal/health"
	"github.com/sebastiankruger/apr-datagen/internal/jobs"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/notify"
	"github.com/sebastiankruger/apr-datagen/internal/opcua"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

const scenarioPublishInterval = time.Minute

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, background jobs and the optional OPC UA status server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	log.Info().
		Str("name", cfg.AppName).
		Int("http_port", cfg.HTTPPort).
		Bool("opcua_enabled", cfg.OPCUAEnabled).
		Str("blob_driver", cfg.BlobDriver).
		Int64("seed", cfg.Seed).
		Msg("Configuration loaded")

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scenarios := scenario.Default()
	genOpts, err := generatorOptions(cfg, scenarios)
	if err != nil {
		return err
	}

	store, err := runs.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer store.Close()

	blobs, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		return fmt.Errorf("open archive store: %w", err)
	}

	m := metrics.New()
	healthHandler := health.NewHandler()
	healthHandler.AddCheck("database", store.Ping)

	var opcuaServer *opcua.Server
	var publisher jobs.StatusPublisher
	if cfg.OPCUAEnabled {
		opcuaServer = opcua.NewServer(cfg.OPCUAPort, cfg.AppName, "./pki")
		if err := opcuaServer.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("OPC UA server failed to start")
		}
		seedRunCounters(ctx, store, opcuaServer)
		publisher = opcuaServer
		healthHandler.AddCheck("opcua_server", func(context.Context) error {
			if !opcuaServer.Running() {
				return errors.New("value storage mode")
			}
			return nil
		})
	}

	var notifier jobs.Notifier
	if cfg.NotificationsEnabled() {
		notifier = notify.NewClient(cfg, m)
	}

	runner := jobs.NewRunner(jobs.Options{
		Store:            store,
		Blobs:            blobs,
		Metrics:          m,
		Notifier:         notifier,
		Publisher:        publisher,
		MaxWorkers:       cfg.MaxWorkers,
		ArchivePrefix:    cfg.ArchivePrefix,
		GeneratorOptions: genOpts,
	})

	apiHandler := api.NewHandler(api.Options{
		Runtime:          config.NewRuntimeConfig(cfg),
		Scenarios:        scenarios,
		GeneratorOptions: genOpts,
		ArchivePrefix:    cfg.ArchivePrefix,
		Metrics:          m,
		Runner:           runner,
		Store:            store,
		Blobs:            blobs,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      api.NewRouter(apiHandler, healthHandler, m),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute, // year archives take a while
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	// Keep the OPC UA scenario node current
	ticker := time.NewTicker(scenarioPublishInterval)
	defer ticker.Stop()
	publishScenario(opcuaServer, scenarios, time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutdown signal received")
			return shutdown(httpServer, runner, opcuaServer)
		case now := <-ticker.C:
			publishScenario(opcuaServer, scenarios, now)
		}
	}
}

func seedRunCounters(ctx context.Context, store *runs.Store, srv *opcua.Server) {
	completed, err := store.CountByStatus(ctx, runs.StatusSucceeded)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count completed runs")
		return
	}
	failed, err := store.CountByStatus(ctx, runs.StatusFailed)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count failed runs")
		return
	}
	srv.SeedCounters(completed, failed)
}

func publishScenario(srv *opcua.Server, scenarios *scenario.Table, now time.Time) {
	if srv == nil {
		return
	}
	srv.PublishScenario(strings.Join(scenarios.Active(now), " & "))
}

func shutdown(httpServer *http.Server, runner *jobs.Runner, opcuaServer *opcua.Server) error {
	log.Info().Msg("Shutting down generator service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Let queued jobs finish so their runs do not stay "running"
	runner.Stop()

	if opcuaServer != nil {
		if err := opcuaServer.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("OPC UA server shutdown error")
		}
	}

	log.Info().Msg("Generator service stopped")
	return nil
}
