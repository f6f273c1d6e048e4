// Package server initializes and runs the intake application server.
// It opens the database, applies migrations, wires the identity and
// onboarding services, and starts the HTTP API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/clientintake/internal/logging"
	"github.com/dmitrijs2005/clientintake/internal/server/archive"
	"github.com/dmitrijs2005/clientintake/internal/server/config"
	"github.com/dmitrijs2005/clientintake/internal/server/httpapi"
	"github.com/dmitrijs2005/clientintake/internal/server/identity"
	"github.com/dmitrijs2005/clientintake/internal/server/onboarding"
	"github.com/dmitrijs2005/clientintake/internal/server/repositories/repomanager"
)

type App struct {
	config            *config.Config
	logger            logging.Logger
	db                *sql.DB
	identityService   *identity.Service
	onboardingService *onboarding.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var archiver onboarding.Archiver
	if cfg.S3BaseEndpoint != "" {
		archiver = archive.NewS3Exporter(cfg)
	}

	is := identity.NewService(db, repos, cfg)
	obs := onboarding.NewService(db, repos, logger, archiver)

	return &App{
		config:            cfg,
		logger:            logger,
		db:                db,
		identityService:   is,
		onboardingService: obs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.onboardingService, app.identityService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
