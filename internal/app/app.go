package app

import (
	"context"
	"fmt"

	"littlesteps/internal/catalog"
	"littlesteps/internal/config"
	"littlesteps/internal/database"
	"littlesteps/internal/handlers"
	"littlesteps/internal/logger"
	"littlesteps/internal/relevance"
	"littlesteps/internal/repository"
	"littlesteps/internal/security"
	"littlesteps/internal/service"
)

// App holds the opened database and every service built on it
type App struct {
	Config  *config.Config
	DB      *database.DB
	Catalog *catalog.Catalog
	Log     *logger.Logger

	Auth        *service.AuthService
	Children    *service.ChildService
	Planning    *service.PlanningService
	Feed        *service.FeedService
	Preferences *service.PreferencesService
	Email       *service.EmailService
	Digest      *service.DigestService
	Backup      *service.BackupService

	CSRF  *security.CSRFGenerator
	Links *security.LinkSigner
}

// New opens the database, applies migrations, loads the catalog and wires the
// services. Each finished stage is reported to status when it is non-nil.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, status *handlers.StartupStatus) (*App, error) {
	step := func(name string) {
		if status != nil {
			status.CompleteStep(name)
		}
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database connection established", "type", cfg.DatabaseType)
	step(handlers.StepDatabase)

	applied, err := db.RunMigrations(cfg.MigrationsPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Migrations completed", "applied", len(applied))
	step(handlers.StepMigrations)

	cat, err := catalog.Default()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("Catalog loaded", "milestones", len(cat.Milestones), "templates", len(cat.Templates),
		"resources", len(cat.Resources))
	step(handlers.StepCatalog)

	resourceRepo := repository.NewResourceRepository(db)
	if err := resourceRepo.UpsertResources(cat.Resources); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed resources: %w", err)
	}
	step(handlers.StepResources)

	email, err := service.NewEmailService(ctx, log, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	ranker := relevance.NewRanker(relevance.Weights{
		AgeFit: cfg.AgeFitWeight,
		Topic:  cfg.TopicWeight,
		Tag:    cfg.TagWeight,
	})
	links := security.NewLinkSigner(cfg.DigestLinkSecret, cfg.DigestLinkTTL)

	a := &App{
		Config:      cfg,
		DB:          db,
		Catalog:     cat,
		Log:         log,
		Auth:        service.NewAuthService(userRepo, cfg.SessionDuration),
		Children:    service.NewChildService(childRepo, cat),
		Planning:    service.NewPlanningService(childRepo, checklistRepo, cat),
		Feed:        service.NewFeedService(childRepo, prefsRepo, resourceRepo, ranker, cfg.FeedLimit),
		Preferences: service.NewPreferencesService(prefsRepo, cat),
		Email:       email,
		Backup:      service.NewBackupService(db, log),
		CSRF:        security.NewCSRFGenerator(cfg.CSRFSecret),
		Links:       links,
	}
	a.Digest = service.NewDigestService(service.DigestDeps{
		Users:      userRepo,
		Children:   childRepo,
		Checklists: checklistRepo,
		Prefs:      prefsRepo,
		Resources:  resourceRepo,
		Settings:   settingsRepo,
		Catalog:    cat,
		Ranker:     ranker,
		Mailer:     email,
		Links:      links,
		AppBaseURL: cfg.AppBaseURL,
		Interval:   cfg.DigestInterval,
		Log:        log,
	})
	return a, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.DB.Close()
}
