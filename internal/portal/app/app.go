package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpapi "github.com/aussiebroadwan/portal/internal/portal/http"
	"github.com/aussiebroadwan/portal/internal/portal/login"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/jwtx"
	"github.com/aussiebroadwan/portal/pkg/metrics"
	"github.com/aussiebroadwan/portal/pkg/mgmtsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// loginStateAudience scopes state cookies to the login flow.
const loginStateAudience = "portal-login"

// Application encapsulates the portal with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db            store.Store
	authenticator *login.Authenticator
	mgmt          *mgmtsdk.Client
	metrics       *metrics.Recorder

	// Services
	appsService         *service.AppsService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService
	housekeepingStarted bool

	stateCodec *login.StateCodec

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// It fails when the configuration is incomplete or provider discovery fails.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initProvider(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until ctx is cancelled or the
// server fails.
func (app *Application) Run(ctx context.Context) error {
	app.housekeepingService.Start()
	app.housekeepingStarted = true

	app.logger.Info("portal starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "reason", context.Cause(ctx))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingStarted {
		app.housekeepingService.Stop()
		app.housekeepingStarted = false
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal stopped")
	return nil
}

// initDatabase initializes the session database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initProvider runs OIDC discovery and prepares the Management API client.
func (app *Application) initProvider() error {
	httpClient := &http.Client{Timeout: app.cfg.HTTPClientTimeout}

	// Signing key refreshes reuse this context for the process lifetime.
	authenticator, err := login.New(context.Background(), login.Config{
		IssuerBaseURL: app.cfg.IssuerBaseURL,
		BaseURL:       app.cfg.BaseURL,
		ClientID:      app.cfg.ClientID,
		ClientSecret:  app.cfg.ClientSecret,
		HTTPClient:    httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize login: %w", err)
	}
	app.authenticator = authenticator

	tokens, err := mgmtsdk.NewTokenProvider(mgmtsdk.TokenProviderConfig{
		IssuerBaseURL: app.cfg.IssuerBaseURL,
		ClientID:      app.cfg.MgmtClientID,
		ClientSecret:  app.cfg.MgmtClientSecret,
		Audience:      app.cfg.MgmtAudience,
		HTTPClient:    httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize management token provider: %w", err)
	}

	app.mgmt = mgmtsdk.NewClient(app.cfg.IssuerBaseURL, tokens)
	app.mgmt.HTTPClient = httpClient

	app.logger.Info("identity provider ready", "issuer", app.cfg.IssuerBaseURL)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	stateKey, err := cryptox.DeriveKey(app.cfg.Secret, cryptox.PurposeLoginState)
	if err != nil {
		return err
	}
	sessionKey, err := cryptox.DeriveKey(app.cfg.Secret, cryptox.PurposeSessionHash)
	if err != nil {
		return err
	}

	signer, err := jwtx.NewStateSigner(stateKey, app.cfg.BaseURL, loginStateAudience)
	if err != nil {
		return fmt.Errorf("failed to initialize state signer: %w", err)
	}
	app.stateCodec = &login.StateCodec{Signer: signer}

	policy := service.DefaultExclusionPolicy()
	if len(app.cfg.ExcludedAppMarkers) > 0 {
		policy.NameMarkers = app.cfg.ExcludedAppMarkers
	}
	policy.ClientIDs = app.cfg.ExcludedClientIDs

	app.appsService = &service.AppsService{
		API:      app.mgmt,
		Policy:   policy,
		Observer: service.Observers(service.LogObserver{}, app.metrics),
	}

	app.sessionService = &service.SessionService{
		Store:          app.db,
		FingerprintKey: sessionKey,
		TTL:            app.cfg.SessionTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		func() bool { return app.authenticator != nil },
		app.logger,
	)

	// Wire services to router
	router.Apps = app.appsService
	router.Sessions = app.sessionService
	router.Metrics = app.metrics
	router.Login = &httpapi.LoginHandler{
		Auth:          app.authenticator,
		State:         app.stateCodec,
		Sessions:      app.sessionService,
		BaseURL:       app.authenticator.BaseURL(),
		SecureCookies: app.cfg.SecureCookies(),
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
