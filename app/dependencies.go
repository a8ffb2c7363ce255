package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/lifelog-api/auth0"
	"github.com/upb/lifelog-api/config"
	"github.com/upb/lifelog-api/middleware"
	"github.com/upb/lifelog-api/repositories"
	"github.com/upb/lifelog-api/repositories/memory"
	"github.com/upb/lifelog-api/repositories/postgres"
	"github.com/upb/lifelog-api/services"
	"go.uber.org/zap"
)

// ErrStoreNotInitialized is returned by CheckStore before a store is wired
var ErrStoreNotInitialized = errors.New("record store not initialized")

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Store: exactly one of RepoFactory and Store is set
	DB          *postgres.DB
	RepoFactory *postgres.RepositoryFactory
	Store       *memory.Store

	// Repositories
	Books     repositories.BookRepository
	Degrees   repositories.DegreeRepository
	TxManager repositories.TransactionManager

	// Services
	BookService   *services.BookService
	DegreeService *services.DegreeService

	// Auth; TokenValidator is nil when the identity provider is not configured
	TokenValidator *auth0.Validator
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	deps.initServices()
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("auth_enabled", deps.TokenValidator != nil))
	return deps, nil
}

// initStore opens the configured record store and its repositories
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	var repos *repositories.Repositories

	switch cfg.Database.Driver {
	case config.DriverMemory:
		d.Store = memory.NewStore(d.Logger)
		repos = d.Store.NewRepositories()
		d.TxManager = d.Store.TransactionManager()
		d.Logger.Warn("using in-memory store, records are lost on restart")

	case config.DriverPostgres:
		factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory
		d.DB = factory.GetDB()

		if cfg.Database.AutoMigrate {
			if err := factory.InitSchema(ctx); err != nil {
				_ = factory.Close()
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			d.Logger.Info("database schema ensured")
		}

		repos = factory.NewRepositories()
		d.TxManager = factory.GetTransactionManager()

	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Database.Driver)
	}

	d.Books = repos.Books
	d.Degrees = repos.Degrees

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initServices() {
	d.BookService = services.NewBookService(d.Books, d.TxManager, d.Logger)
	d.DegreeService = services.NewDegreeService(d.Degrees, d.TxManager, d.Logger)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	if !cfg.Auth0.AuthEnabled() {
		d.Logger.Warn("auth0 not configured, write endpoints will reject every request")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return
	}

	d.TokenValidator = auth0.NewValidator(auth0.Config{
		Domain:      cfg.Auth0.Domain,
		Audience:    cfg.Auth0.Audience,
		Issuer:      cfg.Auth0.Issuer(),
		JWKSURL:     cfg.Auth0.JWKSURL(),
		CacheTTL:    cfg.Auth0.JWKSCacheTTL,
		HTTPTimeout: cfg.Auth0.HTTPTimeout,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenValidator, d.Logger)
	d.Logger.Info("token validator initialized",
		zap.String("issuer", cfg.Auth0.Issuer()),
		zap.String("audience", cfg.Auth0.Audience))
}

// rejectAllValidator rejects all tokens (used when Auth0 is not configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*auth0.Claims, error) {
	return nil, &auth0.AuthError{
		Kind:        auth0.KindInvalidToken,
		Code:        auth0.CodeInvalidHeader,
		Description: "Authentication is not configured.",
	}
}

// CheckStore reports whether the record store can serve requests
func (d *Dependencies) CheckStore(ctx context.Context) error {
	switch {
	case d.DB != nil:
		return d.DB.HealthCheck(ctx)
	case d.Store != nil:
		return d.Store.Ping(ctx)
	default:
		return ErrStoreNotInitialized
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
