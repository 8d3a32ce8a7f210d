package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/casting-agency/auth"
	"github.com/upb/casting-agency/config"
	"github.com/upb/casting-agency/handlers"
	"github.com/upb/casting-agency/jwks"
	"github.com/upb/casting-agency/middleware"
	"github.com/upb/casting-agency/repositories"
	"github.com/upb/casting-agency/repositories/postgres"
	"github.com/upb/casting-agency/services/casting"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory
	TxManager   repositories.TransactionManager

	// Services
	Casting handlers.CastingService

	// Auth. Keys is nil when token verification is not configured.
	Keys *jwks.Resolver
	Gate *middleware.Gate
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires dependencies over an existing repository
// factory. The factory is owned by the result and closed by Close.
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initAuth(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initServices()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase checks connectivity and creates the schema when configured
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := d.RepoFactory.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	d.Logger.Info("database ready",
		zap.String("connection", cfg.Database.LogString()),
		zap.Bool("schema_initialized", cfg.Database.InitSchema))

	return nil
}

// initAuth builds the key resolver, verifier and permission gate
func (d *Dependencies) initAuth(ctx context.Context, cfg *config.Config) error {
	if !cfg.Auth.Enabled() {
		d.Logger.Warn("token verification not configured, protected routes will reject every request")
		// Use reject-all authorizer so protected routes return 401
		d.Gate = middleware.NewGate(rejectAllAuthorizer{}, d.Logger)
		return nil
	}

	resolver := jwks.NewResolver(jwks.Config{
		URL:         cfg.Auth.JWKSURL,
		HTTPTimeout: cfg.Auth.HTTPTimeout,
		CacheTTL:    cfg.Auth.CacheTTL,
	}, d.Logger)

	verifier, err := auth.NewVerifier(auth.Config{
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		Algorithms: cfg.Auth.Algorithms,
		Leeway:     cfg.Auth.Leeway,
	}, resolver)
	if err != nil {
		return err
	}

	if cfg.Auth.PrimeOnStart {
		resolver.Prime(ctx)
	}

	d.Keys = resolver
	d.Gate = middleware.NewGate(verifier, d.Logger)
	d.Logger.Info("token verification enabled",
		zap.String("issuer", cfg.Auth.Issuer),
		zap.String("audience", cfg.Auth.Audience),
		zap.Strings("algorithms", cfg.Auth.Algorithms))
	return nil
}

// initServices builds the casting service over the repositories
func (d *Dependencies) initServices() {
	repos := d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Casting = casting.NewService(repos, d.TxManager, d.Logger)
}

// rejectAllAuthorizer rejects all requests (used when no issuer is configured)
type rejectAllAuthorizer struct{}

func (rejectAllAuthorizer) Authorize(context.Context, string, string) (*auth.DecodedClaims, error) {
	return nil, &auth.AuthError{
		Kind:        auth.KindKeySourceUnavailable,
		Description: "token verification is not configured",
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
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
