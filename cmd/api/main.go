package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/claimdesk/claim-service/internal/api/http"
	"github.com/claimdesk/claim-service/internal/api/http/handlers"
	"github.com/claimdesk/claim-service/internal/auth"
	"github.com/claimdesk/claim-service/internal/config"
	"github.com/claimdesk/claim-service/internal/events"
	"github.com/claimdesk/claim-service/internal/lifecycle"
	"github.com/claimdesk/claim-service/internal/observability"
	"github.com/claimdesk/claim-service/internal/persistence"
	"github.com/claimdesk/claim-service/internal/repository"
	"github.com/claimdesk/claim-service/internal/service"
	"github.com/claimdesk/claim-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		pg        *persistence.Postgres
		claimRepo repository.ClaimRepository
	)
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not set; claims are kept in memory")
		claimRepo = repository.NewMemoryClaimRepository()
	} else {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		claimRepo = repository.NewClaimRepository(pg.PoolHandle())
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	claimRepo = repository.NewCachedClaimRepository(claimRepo, redis.Handle(), cfg.Claims.CacheTTL(), logger)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	claimService := service.NewClaimService(service.ClaimDependencies{
		ClaimRepo:       claimRepo,
		Lifecycle:       lifecycle.New(),
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		MaxSaveAttempts: cfg.Claims.MaxSaveAttempts,
	})

	if len(cfg.Auth.Clients) == 0 {
		logger.Warn("AUTH_CLIENTS is empty; no client can obtain a token")
	}
	authenticator := auth.NewClientAuthenticator(
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		cfg.Auth.Clients,
	)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authenticator),
		Claims:         handlers.NewClaimsHandler(claimService),
		AuthMiddleware: auth.NewAuthMiddleware(authenticator.TokenManager()),
	})

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
