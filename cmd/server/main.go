package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"nutriplan/internal/config"
	"nutriplan/internal/db"
	"nutriplan/internal/db/mock"
	applog "nutriplan/internal/log"
	"nutriplan/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	setLogFormatFunc    = applog.SetFormat
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	code := run(context.Background())
	_ = applog.Sync()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	if err := setLogFormatFunc(cfg.Logging.Format); err != nil {
		applog.Error(ctx, "invalid log format", "format", cfg.Logging.Format, "error", err)
		return 1
	}

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "database initialisation failed", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := buildApp(ctx, cfg, database)
	if err != nil {
		applog.Error(ctx, "application wiring failed", "error", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			applog.Warn(ctx, "shutdown cleanup failed", "error", err)
		}
	}()
	app.bootstrapModels(ctx)

	srv, err := newServerFunc(server.Config{
		Addr:               cfg.Server.Addr,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		API:                app.API,
	})
	if err != nil {
		applog.Error(ctx, "server initialisation failed", "error", err)
		return 1
	}

	shutdownCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-shutdownCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server stopped with error", "error", err)
		return 1
	}
	applog.Info(ctx, "server stopped")
	return 0
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using seeded in-memory database")
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}
