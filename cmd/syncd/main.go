// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-chat-sync/internal/adapter"
	"github.com/MKhiriev/go-chat-sync/internal/config"
	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/internal/service"
	"github.com/MKhiriev/go-chat-sync/internal/store"
	"github.com/MKhiriev/go-chat-sync/internal/utils"
	"github.com/MKhiriev/go-chat-sync/internal/workers"
	"github.com/MKhiriev/go-chat-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("go-chat-sync")
	cfg, err := config.GetEngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to cache database")
	}
	defer db.Close()

	if err = db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying cache migrations")
	}

	kv := store.NewKeyValueRepository(db, log)

	fetcher, err := adapter.NewHTTPDataFetcher(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating data fetcher")
	}

	subject, err := utils.ParseSubjectFromJWT(fetcher.Token())
	if err != nil {
		log.Fatal().Err(err).Msg("error deriving sync subject from bearer token")
	}

	engine := service.NewSyncEngine(kv, fetcher, *cfg, log)
	engine.OnSyncCompleted(func(event service.SyncCompletedEvent) {
		log.Info().
			Str("subject", event.Subject).
			Str("kind", string(event.Kind)).
			Int("conflicts", event.Conflicts).
			Bool("complete", event.Complete).
			Msg("sync completed")
	})
	engine.OnConflictDetected(func(conflict models.SyncConflict) {
		log.Warn().
			Str("conflict_id", conflict.ID).
			Str("entity_type", string(conflict.EntityType)).
			Str("entity_id", conflict.EntityID).
			Msg("sync conflict detected")
	})

	job := service.NewSyncJob(engine, log)
	defer job.Stop()

	runners := workers.NewWorkers(
		workers.NewSyncWorker(ctx, job, subject, cfg.Workers.SyncInterval),
	)
	runners.Run()

	log.Info().
		Str("subject", subject).
		Dur("interval", cfg.Workers.SyncInterval).
		Msg("sync daemon started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

func connectDB(ctx context.Context, cfg config.EngineDB, log *logger.Logger) (*store.DB, error) {
	switch cfg.Driver {
	case "pgx":
		return store.NewConnectPostgres(ctx, cfg, log)
	default:
		return store.NewConnectSQLite(ctx, cfg, log)
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
