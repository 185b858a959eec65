// Package main is the entry point for the Folio portfolio dashboard.
// It wires the databases, market data client, services and HTTP server,
// starts the background jobs and waits for a shutdown signal.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kwchan/folio/internal/clientdata"
	"github.com/kwchan/folio/internal/clients/tencent"
	"github.com/kwchan/folio/internal/config"
	"github.com/kwchan/folio/internal/database"
	"github.com/kwchan/folio/internal/events"
	"github.com/kwchan/folio/internal/modules/backup"
	backuphandlers "github.com/kwchan/folio/internal/modules/backup/handlers"
	"github.com/kwchan/folio/internal/modules/holdings"
	holdingshandlers "github.com/kwchan/folio/internal/modules/holdings/handlers"
	"github.com/kwchan/folio/internal/modules/portfolio"
	portfoliohandlers "github.com/kwchan/folio/internal/modules/portfolio/handlers"
	"github.com/kwchan/folio/internal/modules/snapshots"
	snapshothandlers "github.com/kwchan/folio/internal/modules/snapshots/handlers"
	"github.com/kwchan/folio/internal/reliability"
	"github.com/kwchan/folio/internal/scheduler"
	"github.com/kwchan/folio/internal/server"
	"github.com/kwchan/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Folio")

	// Databases
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileLedger,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	clientDataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "clientdata.db"),
		Profile: database.ProfileCache,
		Name:    "clientdata",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client data database")
	}
	defer clientDataDB.Close()

	for _, db := range []*database.DB{portfolioDB, historyDB, clientDataDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Event bus for the live dashboard stream
	bus := events.NewBus(log)

	// Market data client backed by the quote cache
	cacheRepo := clientdata.NewRepository(clientDataDB.Conn())
	marketData := tencent.NewClient(cfg.QuoteBaseURL, cacheRepo, log)

	// Repositories and services
	holdingsRepo := holdings.NewRepository(portfolioDB.Conn(), log)
	portfolioService := portfolio.NewService(holdingsRepo, marketData, log)

	snapshotRepo := snapshots.NewRepository(historyDB.Conn(), log)
	snapshotService := snapshots.NewService(snapshotRepo, portfolioService, holdingsRepo, bus, log)

	backupService := backup.NewService(holdingsRepo, snapshotRepo, snapshotService, historyDB.Conn(), bus, log)

	// Background jobs
	sched := scheduler.New(log)

	if cfg.SnapshotCron != "" {
		if err := sched.AddJob(cfg.SnapshotCron, scheduler.NewSnapshotJob(snapshotService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register snapshot job")
		}
	}

	cleanupJob := clientdata.NewCleanupJob(cacheRepo, log)
	if err := sched.AddJob("0 30 * * * *", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}

	maintenanceJob := reliability.NewMaintenanceJob(map[string]*database.DB{
		"portfolio":  portfolioDB,
		"history":    historyDB,
		"clientdata": clientDataDB,
	}, cfg.DataDir, log)
	if err := sched.AddJob("0 0 4 * * 0", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	if cfg.Backup.Enabled() {
		r2Client, err := reliability.NewR2Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 client")
		}

		r2Service := reliability.NewR2BackupService(r2Client, backupService, log)
		r2Job := reliability.NewR2BackupJob(r2Service, cfg.Backup.RetentionDays, log)
		if err := sched.AddJob(cfg.Backup.Cron, r2Job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register offsite backup job")
		}

		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Offsite backups enabled")
	} else {
		log.Info().Msg("Offsite backups disabled")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:    log,
		Config: cfg,
		Databases: map[string]*database.DB{
			"portfolio":  portfolioDB,
			"history":    historyDB,
			"clientdata": clientDataDB,
		},
		Bus: bus,
		Handlers: server.Handlers{
			Holdings:  holdingshandlers.NewHandler(holdingsRepo, bus, log),
			Portfolio: portfoliohandlers.NewHandler(portfolioService, log),
			Snapshots: snapshothandlers.NewHandler(snapshotService, log),
			Backup:    backuphandlers.NewHandler(backupService, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Folio stopped")
}
