// Package server wires the TaskLine backend together: storage, services, the
// REST API and the gRPC health port, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskline/internal/logging"
	"github.com/dmitrijs2005/taskline/internal/server/config"
	"github.com/dmitrijs2005/taskline/internal/server/httpapi"
	"github.com/dmitrijs2005/taskline/internal/server/mirror"
	"github.com/dmitrijs2005/taskline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskline/internal/server/services"
	"github.com/dmitrijs2005/taskline/internal/server/storage"

	gs "github.com/dmitrijs2005/taskline/internal/server/grpc"
)

const (
	ProjectName = "TaskLine"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	mirrorHTTPTimeout = 10 * time.Second
)

type App struct {
	config            *config.Config
	logger            logging.Logger
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	userService       *services.UserService
	taskService       *services.TaskService
	attachmentService *services.AttachmentService
	guard             *services.Guard
	mirror            *mirror.Provider
}

// NewApp opens the store, applies migrations, creates the first superuser
// when configured and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	warnings, err := c.CheckSecrets()
	for _, w := range warnings {
		logger.Warn(ctx, w)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	// A nil interface, not a nil *S3Presigner, marks storage as unavailable.
	var presigner storage.Presigner
	if p, err := storage.NewS3Presigner(ctx, c); err != nil {
		logger.Warn(ctx, "object storage disabled", "error", err)
	} else {
		presigner = p
	}

	app := &App{
		config:            c,
		logger:            logger,
		db:                db,
		repomanager:       rm,
		userService:       services.NewUserService(db, rm, c),
		taskService:       services.NewTaskService(db, rm),
		attachmentService: services.NewAttachmentService(db, rm, presigner),
		guard:             services.NewGuard(db, rm, c),
		mirror:            mirror.NewProvider(c.MirrorURL, c.MirrorKey, &http.Client{Timeout: mirrorHTTPTimeout}),
	}

	if err := app.bootstrapSuperuser(ctx); err != nil {
		closeDB(db)
		return nil, err
	}

	return app, nil
}

func (app *App) bootstrapSuperuser(ctx context.Context) error {
	email := app.config.FirstSuperuserEmail
	if email == "" {
		return nil
	}

	_, created, err := app.userService.EnsureSuperuser(ctx, email, app.config.FirstSuperuserPassword)
	if err != nil {
		return fmt.Errorf("first superuser: %w", err)
	}
	if created {
		app.logger.Info(ctx, "created first superuser", "email", email)
	}
	return nil
}

// Handler returns the REST API handler.
func (app *App) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Dependencies{
		Users:          app.userService,
		Tasks:          app.taskService,
		Attachments:    app.attachmentService,
		Guard:          app.guard,
		Mirror:         app.mirror,
		Logger:         app.logger.With("module", "http_server"),
		AllowedOrigins: app.config.AllowedOrigins(),
		ProjectName:    ProjectName,
	})
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	var pinger gs.Pinger
	if app.db != nil {
		pinger = app.db
	}

	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, pinger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or either
// server fails, then closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeDB(app.db)
	app.logger.Info(context.Background(), "App stopped")
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}
