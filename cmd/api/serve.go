package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/solve-chamados/internal/api/http"
	"github.com/spec-kit/solve-chamados/internal/api/http/handlers"
	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/config"
	"github.com/spec-kit/solve-chamados/internal/events"
	"github.com/spec-kit/solve-chamados/internal/observability"
	"github.com/spec-kit/solve-chamados/internal/persistence"
	"github.com/spec-kit/solve-chamados/internal/ratelimit"
	"github.com/spec-kit/solve-chamados/internal/repository"
	"github.com/spec-kit/solve-chamados/internal/service"
	"github.com/spec-kit/solve-chamados/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Connect to Postgres and Redis, apply pending migrations when enabled, and serve the API until SIGINT or SIGTERM.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.close()
	cfg, logger := env.cfg, env.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := env.connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, persistence.MigrateUp, logger); err != nil {
			return err
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	pool := pg.Pool
	authService := env.authService(pool)
	userService := service.NewUserService(authService)

	dispatcher := events.NewInMemoryDispatcher(logger)
	stopRelay, err := worker.StartNotificationWorker(cfg.Events, rdb.Client, dispatcher, logger)
	if err != nil {
		return err
	}
	defer stopRelay()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewTicketRepository(pool),
		Dispatcher: dispatcher,
	})
	assetService := service.NewAssetService(repository.NewAssetRepository(pool), logger)
	orgService := service.NewOrgService(repository.NewGroupRepository(pool), repository.NewRoleRepository(pool), logger)

	deps := map[string]handlers.Pinger{"postgres": pg}
	var loginLimiter ratelimit.Limiter
	if cfg.Auth.LoginRatePerMinute > 0 {
		loginLimiter = ratelimit.NewRedisLimiter(rdb.Client, "login", cfg.Auth.LoginRatePerMinute, time.Minute)
	}
	if loginLimiter != nil || cfg.Events.Broker == config.BrokerRedis {
		deps["redis"] = rdb
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimit(),
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Assets:         handlers.NewAssetsHandler(assetService),
		Users:          handlers.NewUsersHandler(userService),
		Org:            handlers.NewOrgHandler(orgService),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
		SessionPurger:  authService,
		LoginLimiter:   loginLimiter,
		Logger:         logger,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
