package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/config"
	"github.com/spec-kit/solve-chamados/internal/observability"
	"github.com/spec-kit/solve-chamados/internal/persistence"
	"github.com/spec-kit/solve-chamados/internal/repository"
	"github.com/spec-kit/solve-chamados/internal/service"
)

// environment is what every command needs before doing real work.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return &environment{cfg: cfg, logger: logger}, nil
}

func (e *environment) close() {
	_ = e.logger.Sync()
}

func (e *environment) connectPostgres(ctx context.Context) (*persistence.Postgres, error) {
	pg, err := persistence.NewPostgres(ctx, e.cfg.Postgres, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	return pg, nil
}

func (e *environment) authService(pool *pgxpool.Pool) *service.AuthService {
	return service.NewAuthService(service.AuthSettingsFromConfig(e.cfg.Auth), service.AuthDependencies{
		UserRepo:    repository.NewUserRepository(pool),
		RoleRepo:    repository.NewRoleRepository(pool),
		SessionRepo: repository.NewSessionRepository(pool),
		Logger:      e.logger,
	})
}
