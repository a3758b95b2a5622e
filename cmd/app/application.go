package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"reelrate/proj/internal/api/tasks"
	"reelrate/proj/internal/clients/backend"
	"reelrate/proj/internal/config"
	"reelrate/proj/internal/services"
	"reelrate/proj/internal/session"
)

const (
	healthUnknown = int32(iota)
	healthOK
	healthDown
)

// Application is the view controller: it owns the terminal, composes the
// services into renderable state and dispatches user actions. All state
// changes go through service action methods; nothing here mutates entities
// directly.
type Application struct {
	cfg      *config.Config
	log      *slog.Logger
	api      *backend.Client
	services *services.Services
	session  *session.Store
	tasks    *tasks.Pool

	in     *bufio.Scanner
	out    io.Writer
	health atomic.Int32
	done   chan struct{}
}

func NewApplication(
	cfg *config.Config,
	log *slog.Logger,
	api *backend.Client,
	svcs *services.Services,
	sess *session.Store,
	pool *tasks.Pool,
) *Application {
	return &Application{
		cfg:      cfg,
		log:      log,
		api:      api,
		services: svcs,
		session:  sess,
		tasks:    pool,
		in:       bufio.NewScanner(os.Stdin),
		out:      os.Stdout,
		done:     make(chan struct{}),
	}
}

// bootstrap mirrors the initial page load: health check, profile fetch when
// a persisted token exists, then the first catalog load.
func (app *Application) bootstrap(ctx context.Context) {
	app.checkHealth(ctx)
	if app.session.HasToken() {
		if _, err := app.services.Auth.LoadProfile(ctx); err != nil {
			app.renderError(err)
		}
	}
	if _, err := app.services.Catalog.Refresh(ctx, listParams("")); err != nil {
		app.renderError(err)
	}
}

func (app *Application) checkHealth(ctx context.Context) {
	ok, err := app.api.Health(ctx)
	switch {
	case err != nil || !ok:
		app.health.Store(healthDown)
	default:
		app.health.Store(healthOK)
	}
}

// startHealthPolling keeps the status badge fresh off the view loop.
func (app *Application) startHealthPolling() {
	ticker := time.NewTicker(app.cfg.Tasks.HealthPollInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-app.done:
				return
			case <-ticker.C:
				app.tasks.Add(func() {
					app.checkHealth(context.Background())
				})
			}
		}
	}()
}
