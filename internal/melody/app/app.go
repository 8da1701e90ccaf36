package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/blob"
	httpapi "github.com/Natnae-l/AddisMelody-Backend/internal/melody/http"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/notify"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/service"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store/drivers/mongo"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/jwtx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	startupTimeout = 15 * time.Second
)

// Application encapsulates the melody backend with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	blobs blob.Storage
	hub   *notify.Hub

	// Services
	sessionService *service.SessionService
	accountService *service.AccountService
	songService    *service.SongService
	notifier       *service.Notifier

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "melody-backend",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.MongoURL == "" {
		return nil, errors.New("MONGO_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initBlobStorage(ctx); err != nil {
		_ = app.db.Close(context.Background())
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close(context.Background())
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("melody backend starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"blob_driver", app.cfg.BlobDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down melody backend...")

	// Give outstanding requests, including open notification streams,
	// a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(context.Background()); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("melody backend stopped")
	return nil
}

// initDatabase connects to MongoDB and ensures indexes
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := mongo.NewStore(ctx, app.cfg.MongoURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	app.logger.Info("database connection established")
	return nil
}

// initBlobStorage selects the media storage driver from config
func (app *Application) initBlobStorage(ctx context.Context) error {
	switch app.cfg.BlobDriver {
	case "disk", "":
		disk, err := blob.NewDisk(app.cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("failed to initialize disk storage: %w", err)
		}
		app.blobs = disk
	case "s3":
		s3, err := blob.NewS3(ctx, blob.S3Config{
			Endpoint:  app.cfg.S3Endpoint,
			AccessKey: app.cfg.S3AccessKey,
			SecretKey: app.cfg.S3SecretKey,
			Bucket:    app.cfg.S3Bucket,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		app.blobs = s3
	default:
		return fmt.Errorf("unknown blob driver %q", app.cfg.BlobDriver)
	}

	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	codec, err := jwtx.NewHS256([]byte(app.cfg.JWTSecret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	app.hub = notify.NewHub()

	app.sessionService = &service.SessionService{
		Codec:      codec,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.notifier = &service.Notifier{
		Store: app.db,
		Hub:   app.hub,
	}

	app.accountService = &service.AccountService{
		Store:    app.db,
		Sessions: app.sessionService,
		Blobs:    app.blobs,
		Notifier: app.notifier,
	}

	app.songService = &service.SongService{
		Store:    app.db,
		Blobs:    app.blobs,
		Notifier: app.notifier,
	}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.SessionService = app.sessionService
	router.AccountService = app.accountService
	router.SongService = app.songService
	router.Notifier = app.notifier
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server. WriteTimeout stays unset so notification
	// streams can outlive ordinary requests.
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
