// Package main is the entry point for the Compass market context service.
// Compass assembles tier-appropriate market context for the financial
// guidance chat product: economic indicators, live rate boards, and
// derived insights, cached per subscription tier and refreshed on a
// schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hartfield/compass/internal/cache"
	"github.com/hartfield/compass/internal/clients/fred"
	"github.com/hartfield/compass/internal/clients/ratefeed"
	"github.com/hartfield/compass/internal/config"
	"github.com/hartfield/compass/internal/database"
	"github.com/hartfield/compass/internal/marketctx"
	"github.com/hartfield/compass/internal/observations"
	"github.com/hartfield/compass/internal/providers/economic"
	"github.com/hartfield/compass/internal/providers/livemarket"
	"github.com/hartfield/compass/internal/reliability"
	"github.com/hartfield/compass/internal/scheduler"
	"github.com/hartfield/compass/internal/server"
	"github.com/hartfield/compass/pkg/logger"
)

// main orchestrates the startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Open and migrate the observations database
//  3. Wire upstream clients, providers and the context orchestrator
//  4. Register background jobs (refresh, retention, maintenance, backups)
//  5. Start the HTTP server and wait for a shutdown signal
func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Compass")

	// The observations database holds every indicator value we have
	// fetched. It backs last-known-good fallbacks when an upstream is
	// down, trend insights, and the retention job.
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "observations.db"),
		Profile: database.ProfileStandard,
		Name:    "observations",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open observations database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate observations database")
	}

	history := observations.NewRepository(db.Conn())

	// Shared data cache. Providers populate it with their own TTLs, and
	// the cache invalidation endpoint reaches it through the orchestrator.
	dataCache := cache.New(cache.DefaultTTL)

	fredClient := fred.NewClient(cfg.FredAPIKey, cfg.FredBaseURL, log)
	rateFeedClient := ratefeed.NewClient(cfg.RateFeedAPIKey, cfg.RateFeedBaseURL, log)

	economicProvider := economic.NewProvider(fredClient, dataCache, history, log)
	liveProvider := livemarket.NewProvider(rateFeedClient, dataCache, log)

	orch := marketctx.NewOrchestrator(economicProvider, liveProvider, history, dataCache, cfg.RefreshInterval, log)

	// Background jobs. The refresh job keeps all tier contexts warm, the
	// rest keep the observations database healthy over months of uptime.
	sched := scheduler.New(log)

	refreshJob := marketctx.NewRefreshJob(orch, log)
	if err := sched.AddJob("@every "+cfg.RefreshInterval.String(), refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register context refresh job")
	}

	retentionJob := observations.NewRetentionJob(history, cfg.RetentionDays, log)
	if err := sched.AddJob("0 30 3 * * *", retentionJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register observation retention job")
	}

	maintenanceJob := reliability.NewMaintenanceJob(db, history, cfg.DataDir, log)
	if err := sched.AddJob("0 0 3 * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	vacuumJob := reliability.NewVacuumJob(db, log)
	if err := sched.AddJob("0 0 5 * * 0", vacuumJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register vacuum job")
	}

	// S3 backups are optional and stay off until credentials are set.
	// backupJob keeps the interface type so an absent job is a true nil
	// for the manual trigger endpoint.
	var backupService *reliability.BackupService
	var backupJob scheduler.Job
	if cfg.Backup.Enabled() {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			cfg.Backup.Bucket,
			cfg.Backup.Region,
			cfg.Backup.Endpoint,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 backup client")
		}

		backupService = reliability.NewBackupService(s3Client, db, cfg.DataDir, log)
		job := reliability.NewBackupJob(backupService, cfg.Backup.RetentionDays, log)
		if err := sched.AddJob(cfg.Backup.Schedule, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
		backupJob = job

		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("S3 backups enabled")
	} else {
		log.Info().Msg("S3 backups disabled (credentials not configured)")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:          log,
		Cfg:          cfg,
		DB:           db,
		Orchestrator: orch,
		Scheduler:    sched,
		Backups:      backupService,
	})
	srv.SetJobs(refreshJob, backupJob)

	sched.Start()

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Warm the context cache so the first chat request is served from
	// memory instead of waiting on upstream providers
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Warn().Err(err).Msg("Initial context warm-up failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the scheduler first so no job is mid-write when the database
	// connection closes
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
