// Package server wires the OmniGuard HTTP server: storage, migrations,
// credential scheme, session store and routing. It also handles signals and
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/omniguard/internal/logging"
	"github.com/dmitrijs2005/omniguard/internal/server/config"
	"github.com/dmitrijs2005/omniguard/internal/server/credentials"
	"github.com/dmitrijs2005/omniguard/internal/server/datastore"
	"github.com/dmitrijs2005/omniguard/internal/server/httpapi"
	"github.com/dmitrijs2005/omniguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/omniguard/internal/server/services"
	"github.com/dmitrijs2005/omniguard/internal/server/session"
)

// App holds the wired server components.
type App struct {
	config      *config.Config
	logger      logging.Logger
	store       *datastore.Store
	repomanager *repomanager.DialectManager
	authService *services.AuthService
	sessions    session.Store
	closers     []func() error
}

// NewApp builds every component from c. It does not touch the network except
// for the Redis ping when the redis session backend is selected.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, opts ...datastore.Option) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	dialect, err := datastore.DialectByName(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	scheme, err := credentials.New(c.CredentialScheme, credentials.Options{
		BcryptCost: c.BcryptCost,
		Key:        c.CredentialKey,
	})
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	switch c.SessionBackend {
	case config.SessionBackendRedis:
		rs, err := session.NewRedisStoreFromURL(ctx, c.RedisURL, c.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("session store init error: %w", err)
		}
		app.sessions = rs
		app.closers = append(app.closers, rs.Close)
	default:
		app.sessions = session.NewMemoryStore(c.SessionTTL)
	}

	app.store = datastore.New(dialect, c.DSN(), logger, opts...)
	app.repomanager = repomanager.NewDialectManager(dialect, logger)
	app.authService = services.NewAuthService(app.store, app.repomanager, scheme, logger)

	logger.Info(ctx, "app configured",
		"driver", dialect.Name,
		"credential_scheme", scheme.Name(),
		"session_backend", c.SessionBackend,
	)
	return app, nil
}

// RouterConfig assembles the HTTP layer's collaborators from the app.
func (app *App) RouterConfig() httpapi.RouterConfig {
	var limiter *httpapi.LoginLimiter
	if app.config.LoginRateLimit > 0 {
		limiter = httpapi.NewLoginLimiter(app.config.LoginRateLimit)
	}
	return httpapi.RouterConfig{
		Logger:   app.logger,
		Auth:     app.authService,
		Sessions: app.sessions,
		Cookie: httpapi.CookieConfig{
			Name:   app.config.SessionCookieName,
			Secure: app.config.CookieSecure,
			MaxAge: app.config.SessionTTL,
		},
		LoginLimiter: limiter,
	}
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
	s := httpapi.NewServer(app.config.HTTPAddr, httpapi.NewRouter(app.RouterConfig()), app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Auth exposes the authentication service for in-process callers such as
// the admin tool.
func (app *App) Auth() *services.AuthService {
	return app.authService
}

// Migrate applies pending schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	return app.repomanager.Migrate(ctx, app.store)
}

// Run migrates the schema, serves until a signal or ctx cancellation and
// releases resources before returning.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	return app.Close()
}

// Close releases the datastore handle and the session backend.
func (app *App) Close() error {
	var firstErr error
	if err := app.store.Disconnect(); err != nil {
		firstErr = err
	}
	for _, c := range app.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
