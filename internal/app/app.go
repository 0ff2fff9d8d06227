// Package app wires the application together: storage, the Places
// client, the broadcaster, the job runner, the retention scheduler and
// the HTTP handlers.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/handlers"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/events"
	"github.com/ternarybob/reperio/internal/services/jobs"
	"github.com/ternarybob/reperio/internal/services/license"
	"github.com/ternarybob/reperio/internal/services/places"
	"github.com/ternarybob/reperio/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	PlacesClient   interfaces.PlacesClient
	Broadcaster    interfaces.Broadcaster
	LicenseService interfaces.LicenseValidator
	JobService     *jobs.Service

	// Retention scheduler
	scheduler *cron.Cron

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	ScrapeHandler   *handlers.ScrapeHandler
	JobHandler      *handlers.JobHandler
	ProgressHandler *handlers.ProgressHandler
	WSHandler       *handlers.WebSocketHandler
	DownloadHandler *handlers.DownloadHandler
	CategoryHandler *handlers.CategoryHandler
	LicenseHandler  *handlers.LicenseHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.PlacesClient = places.NewClient(&cfg.PlacesAPI, logger)
	app.Broadcaster = events.NewBroadcaster(logger)
	app.LicenseService = license.NewService(&cfg.License, storageManager.LicenseCacheStorage(), logger)

	if app.LicenseService.Enabled() {
		logger.Info().Msg("License enforcement enabled")
	} else {
		logger.Info().Msg("License enforcement disabled (not configured)")
	}

	app.JobService = jobs.NewService(
		app.PlacesClient,
		app.Broadcaster,
		app.StorageManager,
		app.LicenseService,
		cfg,
		logger,
	)

	if err := app.startScheduler(); err != nil {
		storageManager.Close()
		return nil, err
	}

	app.APIHandler = handlers.NewAPIHandler()
	app.ScrapeHandler = handlers.NewScrapeHandler(app.JobService, logger)
	app.JobHandler = handlers.NewJobHandler(app.JobService, logger)
	app.ProgressHandler = handlers.NewProgressHandler(app.Broadcaster, logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.Broadcaster, logger)
	app.DownloadHandler = handlers.NewDownloadHandler(app.JobService, storageManager.ResultStorage(), logger)
	app.CategoryHandler = handlers.NewCategoryHandler()
	app.LicenseHandler = handlers.NewLicenseHandler(app.LicenseService, logger)

	logger.Info().Msg("Application initialized")
	return app, nil
}

// startScheduler runs expired-job eviction on the configured cron schedule
func (a *App) startScheduler() error {
	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(a.Config.Jobs.CleanupSchedule, func() {
		if err := a.JobService.CleanupExpired(context.Background()); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduled cleanup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", a.Config.Jobs.CleanupSchedule, err)
	}
	a.scheduler.Start()

	a.Logger.Info().
		Str("schedule", a.Config.Jobs.CleanupSchedule).
		Dur("retention", time.Duration(a.Config.Jobs.Retention)).
		Msg("Retention scheduler started")
	return nil
}

// Close releases application resources
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
