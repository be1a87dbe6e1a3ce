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

	httpapi "github.com/fastplanner/planner/internal/api/http"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/internal/api/store"
	"github.com/fastplanner/planner/internal/api/store/drivers/sqlite"
	"github.com/fastplanner/planner/pkg/cryptox"
	"github.com/fastplanner/planner/pkg/notify"
	"github.com/fastplanner/planner/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the planner API and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	notifier *notify.Breaker

	tokenService        *service.TokenService
	sessionService      *service.SessionService
	authzService        *service.AuthzService
	invitationService   *service.InvitationService
	projectService      *service.ProjectService
	memberService       *service.MemberService
	historyService      *service.HistoryService
	notificationService *service.NotificationService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "planner-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initNotifier(); err != nil {
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

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("planner api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains requests, stops background work and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down planner api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	// Let queued reset emails finish before the process exits.
	app.sessionService.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("planner api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
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

func (app *Application) initNotifier() error {
	m := app.cfg.Mail
	provider, err := notify.New(notify.Config{
		Provider:      m.Provider,
		From:          m.From,
		FromName:      m.FromName,
		SendGridKey:   m.SendGridAPIKey,
		MailgunDomain: m.MailgunDomain,
		MailgunKey:    m.MailgunAPIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize mail provider: %w", err)
	}

	app.notifier = notify.NewBreaker("mail-"+m.Provider, provider, notify.BreakerSettings{
		SendTimeout: m.SendTimeout,
	})
	app.logger.Info("mail provider configured", "provider", m.Provider)
	return nil
}

func (app *Application) initServices() error {
	tokens, err := service.NewTokenService([]byte(app.cfg.JWTSecret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	tokens.AccessTTL = app.cfg.AccessTokenTTL
	tokens.RefreshTTL = app.cfg.RefreshTokenTTL
	tokens.ResetTTL = app.cfg.ResetTokenTTL
	app.tokenService = tokens

	app.sessionService = &service.SessionService{
		Store:       app.db,
		Tokens:      tokens,
		Notifier:    app.notifier,
		ResetURL:    app.cfg.ResetPasswordURL,
		SendTimeout: app.cfg.Mail.SendTimeout,
	}
	app.authzService = &service.AuthzService{Store: app.db}
	app.invitationService = &service.InvitationService{
		Store: app.db,
		TTL:   app.cfg.InvitationTTL,
	}
	app.projectService = &service.ProjectService{Store: app.db}
	app.memberService = &service.MemberService{Store: app.db}
	app.historyService = &service.HistoryService{Store: app.db}
	app.notificationService = &service.NotificationService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthLimit = app.cfg.RateLimit.Auth()
	router.APILimit = app.cfg.RateLimit.API()
	router.Notifier = app.notifier

	router.TokenService = app.tokenService
	router.SessionService = app.sessionService
	router.AuthzService = app.authzService
	router.InvitationService = app.invitationService
	router.ProjectService = app.projectService
	router.MemberService = app.memberService
	router.HistoryService = app.historyService
	router.NotificationService = app.notificationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
