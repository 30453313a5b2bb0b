package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	estimationservice "pointdeck/contexts/estimation/estimation-service"
	estimationpostgres "pointdeck/contexts/estimation/estimation-service/adapters/postgres"
	estimationworkers "pointdeck/contexts/estimation/estimation-service/application/workers"
	participantservice "pointdeck/contexts/participants/participant-service"
	participantpostgres "pointdeck/contexts/participants/participant-service/adapters/postgres"
	"pointdeck/internal/platform/config"
	"pointdeck/internal/platform/db"
	"pointdeck/internal/platform/httpserver"
	"pointdeck/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server          *httpserver.Server
	postgres        *db.Postgres
	rosterProjector estimationworkers.RosterProjector
	logger          *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  estimationworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	estimationRepo := estimationpostgres.NewRepository(pg.DB, logger)
	if err := estimationRepo.Migrate(migrateCtx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	participantRepo := participantpostgres.NewRepository(pg.DB, logger)
	if err := participantRepo.Migrate(migrateCtx); err != nil {
		_ = pg.Close()
		return nil, err
	}

	bus := messaging.NewBus(logger)

	estimationModule := estimationservice.NewModule(estimationservice.Dependencies{
		Stories:           estimationRepo,
		Votes:             estimationRepo,
		Unlocks:           estimationRepo,
		Comments:          estimationRepo,
		Participants:      estimationRepo,
		Outbox:            estimationRepo,
		OutboxReader:      estimationRepo,
		Clock:             estimationpostgres.SystemClock{},
		IDGen:             estimationpostgres.UUIDGenerator{},
		UnlockThreshold:   cfg.UnlockThreshold,
		AutoRevealEnabled: cfg.EnableAutoReveal,
		AutoStartEnabled:  cfg.EnableAutoStart,
		Logger:            logger,
	})

	participantModule := participantservice.NewModule(participantservice.Dependencies{
		Participants:      participantRepo,
		Publisher:         bus,
		Clock:             participantpostgres.SystemClock{},
		IDGen:             participantpostgres.UUIDGenerator{},
		DisableSpectators: !cfg.EnableSpectatorMode,
		Logger:            logger,
	})

	server := httpserver.New(estimationModule, participantModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		rosterProjector: estimationworkers.RosterProjector{
			Subscriber:   bus,
			Participants: estimationRepo,
			Logger:       logger,
		},
		logger: logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	repo := estimationpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: estimationworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     estimationpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	// Roster events publish on the in-process bus of this process, so the
	// projection consumer runs alongside the HTTP server.
	if err := a.rosterProjector.Start(ctx); err != nil {
		return err
	}
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
