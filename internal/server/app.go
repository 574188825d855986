// Package server wires configuration, storage, outbound clients and the
// REST API together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/archive"
	"github.com/dmitrijs2005/ideforge/internal/server/cerebras"
	"github.com/dmitrijs2005/ideforge/internal/server/config"
	"github.com/dmitrijs2005/ideforge/internal/server/kestra"
	"github.com/dmitrijs2005/ideforge/internal/server/probe"
	"github.com/dmitrijs2005/ideforge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ideforge/internal/server/rest"
	"github.com/dmitrijs2005/ideforge/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	syncer *services.StatusSyncer
	rest   *rest.Server
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, c.LogLevel, os.Stdout)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	arch, err := archive.New(ctx, archive.S3Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive init error: %w", err)
	}

	wf := kestra.NewClient(kestra.Config{
		BaseURL:   c.KestraURL,
		Username:  c.KestraUsername,
		Password:  c.KestraPassword,
		Namespace: c.KestraNamespace,
	})
	if !c.KestraConfigured() {
		logger.Warn(ctx, "workflow engine credentials missing; provisioning will fail")
	}
	flows := services.Flows{
		Provision: c.KestraProvisionFlow,
		Terminate: c.KestraTerminateFlow,
		Message:   c.KestraMessageFlow,
	}

	planner := cerebras.NewClient(cerebras.Config{
		BaseURL: c.CerebrasBaseURL,
		APIKey:  c.CerebrasAPIKey,
		Model:   c.CerebrasModel,
	})

	syncer := services.NewStatusSyncer(db, rm, probe.NewHTTPProber(c.ProbeTimeout), logger)

	svc := rest.Services{
		Users:        services.NewUserService(db, rm, c, logger),
		Projects:     services.NewProjectService(db, rm, logger),
		Provisioning: services.NewProvisioningService(db, rm, wf, flows, arch, logger),
		Sync:         syncer,
		Plan:         services.NewPlanService(planner, logger),
	}

	srv := rest.NewServer(svc, rest.Options{
		Production:     c.Production,
		AllowedOrigins: c.AllowedOrigins,
		AuthRateLimit:  c.AuthRateLimit,
		SessionTTL:     c.TokenValidityDuration,
		Health:         db.PingContext,
	}, logger)

	return &App{config: c, logger: logger, db: db, syncer: syncer, rest: srv}, nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "http server listening", "addr", app.config.HTTPAddr)
	if err := app.rest.Listen(app.config.HTTPAddr); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or a listener failure, then
// shuts the HTTP server down and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.SyncInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.logger.Info(ctx, "status sync enabled", "interval", app.config.SyncInterval.String())
			app.syncer.Run(ctx, app.config.SyncInterval)
		}()
	}

	<-ctx.Done()
	app.logger.Info(context.Background(), "Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := app.rest.Shutdown(shutdownCtx)
	wg.Wait()

	return errors.Join(err, app.db.Close())
}
