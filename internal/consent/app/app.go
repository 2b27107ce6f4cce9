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

	httpapi "github.com/aussiebroadwan/carelink/internal/consent/http"
	"github.com/aussiebroadwan/carelink/internal/consent/notify"
	"github.com/aussiebroadwan/carelink/internal/consent/service"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/internal/consent/store/drivers/postgres"
	"github.com/aussiebroadwan/carelink/internal/consent/store/drivers/sqlite"
	"github.com/aussiebroadwan/carelink/pkg/cryptox"
	"github.com/aussiebroadwan/carelink/pkg/httpx"
	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/aussiebroadwan/carelink/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the consent service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	verifier jwtx.Verifier
	sender   notify.Sender

	identityService  *service.IdentityService
	challengeService *service.ChallengeService
	linkService      *service.LinkService
	grantService     *service.GrantService

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "consent-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New validates cfg and initialises every dependency.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	ctx := context.Background()
	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)

	verifier, err := NewVerifier(ctx, cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.verifier = verifier

	if err := app.initServices(); err != nil {
		_ = db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// OpenStore opens the configured driver without running migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		db, err := postgres.NewStore(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	case DriverSQLite:
		db, err := sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// NewVerifier builds the token verifier: HS256 against the shared secret,
// asymmetric algorithms against the provider's JWKS, or both.
func NewVerifier(ctx context.Context, cfg Config, logger *slog.Logger) (jwtx.Verifier, error) {
	var v jwtx.ByAlgorithm

	if cfg.AuthJWTSecret != "" {
		hs, err := jwtx.NewVerifierHS256([]byte(cfg.AuthJWTSecret), cfg.AuthIssuer, cfg.Audiences(),
			jwtx.WithLeeway(cfg.AuthLeeway))
		if err != nil {
			return nil, fmt.Errorf("failed to initialise token verifier: %w", err)
		}
		v.HS256 = hs
	}

	if cfg.AuthJWKSURL != "" {
		keys := jwtx.NewRemoteKeySet(cfg.AuthJWKSURL)
		// Keys are fetched lazily if the provider is unreachable at startup.
		if err := keys.Refresh(ctx); err != nil {
			logger.Warn("initial JWKS fetch failed", "url", cfg.AuthJWKSURL, "error", err)
		}
		v.Asymmetric = jwtx.NewVerifierJWKS(keys, cfg.AuthIssuer, cfg.Audiences(), cfg.AuthLeeway)
	}

	return v, nil
}

func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrGeneratePepper(app.cfg.ChallengePepperFile)
	if err != nil {
		return fmt.Errorf("failed to load challenge pepper: %w", err)
	}
	hasher, err := cryptox.NewCodeHasher(pepper)
	if err != nil {
		return fmt.Errorf("failed to initialise code hasher: %w", err)
	}

	switch app.cfg.NotifyDriver {
	case NotifyHTTP:
		app.sender = notify.NewHTTPMailer(app.cfg.NotifyEndpoint, app.cfg.NotifyAPIKey, app.cfg.NotifyFrom, app.cfg.NotifyTimeout)
	default:
		app.logger.Warn("using log-only notifier: codes are written to the log")
		app.sender = notify.LogSender{}
	}

	app.identityService = &service.IdentityService{Verifier: app.verifier, Store: app.db}
	app.challengeService = &service.ChallengeService{
		Store:        app.db,
		Sender:       app.sender,
		Hasher:       hasher,
		TTL:          app.cfg.ChallengeTTL,
		Window:       app.cfg.ChallengeWindow,
		MaxPerWindow: app.cfg.ChallengeMaxPerWindow,
		SendTimeout:  app.cfg.NotifyTimeout,
	}
	app.linkService = &service.LinkService{Store: app.db, Challenges: app.challengeService}
	app.grantService = &service.GrantService{
		Store:        app.db,
		ExpiringSoon: app.cfg.GrantExpiringSoon,
		MaxTTL:       app.cfg.GrantMaxTTL,
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.verifier, BuildVersion, app.db, app.logger)

	router.IdentityService = app.identityService
	router.LinkService = app.linkService
	router.GrantService = app.grantService
	router.ConfirmLimit = httpx.RateLimitConfig{
		RequestsPerWindow: app.cfg.ConfirmRequestsPerMin,
		Window:            time.Minute,
		Burst:             app.cfg.ConfirmBurst,
	}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("consent service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
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

// Shutdown drains in-flight requests and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down consent service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("consent service stopped")
	return nil
}
