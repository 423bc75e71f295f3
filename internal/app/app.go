// Package app is the bootstrap/wiring layer that assembles every other
// package into one running instance, the same role the teacher's
// internal/app/server.go plays for tokenhub. Unlike the teacher, this
// package builds no chi.Mux itself — the HTTP and CLI front ends are two
// independent callers of the same App (per SPEC_FULL.md §6), so App only
// owns the shared core: store, vault, credentials, catalog, health, usage,
// events, metrics, tracing and the router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/driftgate/gateway/internal/catalog"
	"github.com/driftgate/gateway/internal/config"
	"github.com/driftgate/gateway/internal/credentials"
	"github.com/driftgate/gateway/internal/events"
	"github.com/driftgate/gateway/internal/health"
	"github.com/driftgate/gateway/internal/logging"
	"github.com/driftgate/gateway/internal/metrics"
	"github.com/driftgate/gateway/internal/refresh"
	"github.com/driftgate/gateway/internal/router"
	"github.com/driftgate/gateway/internal/store"
	"github.com/driftgate/gateway/internal/tracing"
	"github.com/driftgate/gateway/internal/usage"
	"github.com/driftgate/gateway/internal/vault"
)

// App is the fully wired core shared by the HTTP server and the CLI.
type App struct {
	Config      *config.Config
	Store       *store.Store
	Vault       *vault.Vault
	Credentials *credentials.Store
	Catalog     *catalog.Catalog
	Health      *health.Tracker
	Usage       *usage.Logger
	Events      *events.Bus
	Metrics     *metrics.Registry
	Router      *router.Router
	Refresh     *refresh.Job
	Logger      *slog.Logger

	otelShutdown func(context.Context) error
}

// New opens the store, seeds the catalog, and wires every component
// together. Callers must call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.Setup(cfg.Logging.Level)

	otelShutdown, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("app: otel setup: %w", err)
	}

	db, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: migrate store: %w", err)
	}

	v, err := vault.LoadOrCreate(config.DefaultCredentialsKeyPath())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: load vault key: %w", err)
	}

	creds := credentials.New(db, v)
	cat := catalog.New(db)
	if err := cat.EnsureAllSeeded(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: seed catalog: %w", err)
	}

	bus := events.NewBus()
	reg := metrics.New()
	tracker := health.New(db, bus)
	usageLogger := usage.New(db, logger)

	subscribeEventLog(bus, logger)
	subscribeHealthMetrics(bus, reg)

	providerClient := &http.Client{Transport: tracing.HTTPTransport(http.DefaultTransport)}
	r := router.New(cat, tracker, usageLogger, creds, providerClient, reg, router.Config{
		AttemptTimeout:  cfg.ProviderTimeout(),
		BaseURLDefaults: resolveBaseURLDefaults(cfg.Providers.BaseURLs),
	})
	if err := r.RebuildAdapters(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("app: build provider adapters: %w", err)
	}

	return &App{
		Config:       cfg,
		Store:        db,
		Vault:        v,
		Credentials:  creds,
		Catalog:      cat,
		Health:       tracker,
		Usage:        usageLogger,
		Events:       bus,
		Metrics:      reg,
		Router:       r,
		Refresh:      refresh.New(cat, usageLogger, r, bus),
		Logger:       logger,
		otelShutdown: otelShutdown,
	}, nil
}

// RebuildAdapters re-derives the router's provider adapter map; call this
// after any credential mutation (add-service/remove-service).
func (a *App) RebuildAdapters(ctx context.Context) error {
	return a.Router.RebuildAdapters(ctx)
}

// Close releases every resource App opened.
func (a *App) Close(ctx context.Context) error {
	a.Usage.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	return a.Store.Close()
}

// subscribeEventLog attaches the structured-log sink described in
// SPEC_FULL.md §4.12: every bus event logged at info, nothing more.
func subscribeEventLog(bus *events.Bus, logger *slog.Logger) {
	sub := bus.Subscribe(64)
	go func() {
		for e := range sub.C {
			logger.Info("event",
				slog.String("type", string(e.Type)),
				slog.String("provider", e.Provider),
				slog.String("old_state", e.OldState),
				slog.String("new_state", e.NewState),
				slog.String("reason", e.Reason),
				slog.String("workload", e.Workload),
				slog.Int("considered", e.Considered),
				slog.Int("inserted", e.Inserted),
				slog.Bool("dry_run", e.DryRun),
			)
		}
	}()
}

// subscribeHealthMetrics keeps the provider_health gauge in sync with every
// health transition, independent of the request path that triggered it.
func subscribeHealthMetrics(bus *events.Bus, reg *metrics.Registry) {
	sub := bus.Subscribe(64)
	go func() {
		for e := range sub.C {
			if e.Type != events.EventHealthChange {
				continue
			}
			reg.SetProviderHealth(domainProvider(e.Provider), health.Status(e.NewState))
		}
	}()
}
