package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/sessiongate/internal/gateway/http"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/service"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/session"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/redis"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/sessiongate/internal/gateway/upstream"
	"github.com/aussiebroadwan/sessiongate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the session gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions *session.Manager
	registry *service.Registry
	hooks    *service.HookRunner

	// Services
	loginService   *service.LoginService
	logoutService  *service.LogoutService
	refreshService *service.RefreshService
	notifyService  *service.NotifyService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Callback and logout hooks registered by the embedding program are passed
// through to the provider registry.
func New(cfg Config, hooks ...service.Hook) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "session-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		hooks: service.NewHookRunner(hooks...),
	}

	providers, err := LoadProviders(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}

	registry, err := service.NewRegistry(providers, app.hooks)
	if err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	app.registry = registry

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("session gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"providers", len(app.registry.All()),
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
	app.logger.Info("shutting down session gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("session gateway stopped")
	return nil
}

// initStore initializes the session store named by the config
func (app *Application) initStore() error {
	switch app.cfg.StoreDriver {
	case "memory", "":
		app.db = memory.NewStore()

	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply store migrations: %w", err)
		}
		app.db = db
		app.logger.Info("store migrations applied successfully")

	case "redis":
		app.db = redis.NewStore(app.cfg.RedisAddr, app.cfg.RedisPass, app.cfg.RedisDB, app.cfg.SessionTTL)

	default:
		return fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}

	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.sessions = session.NewManager(app.db, app.cfg.CookieName, app.cfg.CookieSecure)

	exchanger := upstream.NewExchanger(nil)
	urls := &service.URLBuilder{BasePath: app.cfg.BasePath}

	app.loginService = &service.LoginService{
		Registry:         app.registry,
		Sessions:         app.sessions,
		Exchanger:        exchanger,
		Hooks:            app.hooks,
		URLs:             urls,
		ErrorRedirectURL: app.cfg.ErrorRedirectURL,
	}
	app.logoutService = &service.LogoutService{
		Registry:         app.registry,
		Sessions:         app.sessions,
		Hooks:            app.hooks,
		URLs:             urls,
		ErrorRedirectURL: app.cfg.ErrorRedirectURL,
	}
	app.refreshService = &service.RefreshService{
		Registry:  app.registry,
		Exchanger: exchanger,
	}

	notify := &service.NotifyService{Registry: app.registry}
	if purger, ok := app.db.(store.SessionPurger); ok {
		notify.Purger = purger
	}
	app.notifyService = notify
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.cfg.BasePath, BuildVersion, app.db, app.logger)

	// Wire services to router
	router.Sessions = app.sessions
	router.Registry = app.registry
	router.LoginService = app.loginService
	router.LogoutService = app.logoutService
	router.RefreshService = app.refreshService
	router.NotifyService = app.notifyService
	router.LogoutTokenHeader = app.cfg.LogoutTokenHeader
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
