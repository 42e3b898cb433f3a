package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/grievance-service/internal/api/http"
	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), cfg.Postgres, logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	userRepo := repository.NewUserRepository(postgres.PoolHandle())
	grievanceRepo := repository.NewGrievanceRepository(postgres.PoolHandle())
	updateRepo := repository.NewGrievanceUpdateRepository(postgres.PoolHandle())
	feedbackRepo := repository.NewFeedbackRepository(postgres.PoolHandle())

	if cfg.Postgres.SeedDefaults {
		if err := persistence.SeedDefaults(ctx, userRepo, cfg.Auth, logger); err != nil {
			logger.Fatal("seeding default accounts failed", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: userRepo})
	grievanceService := service.NewGrievanceService(cfg.Workflow, service.GrievanceDependencies{
		GrievanceRepo: grievanceRepo,
		UpdateRepo:    updateRepo,
		FeedbackRepo:  feedbackRepo,
		UserRepo:      userRepo,
		Dispatcher:    dispatcher,
	})
	statsService := service.NewStatsService(grievanceRepo, redisStore.Handle(), cfg.Workflow, logger)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
		ErrorHandler: httpapi.ErrorHandler(logger, metrics),
	})

	httpapi.RegisterMiddlewares(app, cfg.App, logger, metrics)
	httpapi.RegisterRoutes(app, httpapi.RouteConfig{
		Auth:       handlers.NewAuthHandler(authService),
		Grievances: handlers.NewGrievancesHandler(grievanceService),
		Stats:      handlers.NewStatsHandler(statsService),
		Admin:      handlers.NewAdminHandler(authService),
		Health:     handlers.NewHealthHandler(cfg.App, postgres, redisStore),
		AuthMW:     auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
	})

	go func() {
		addr := cfg.App.Addr()
		logger.Info("http server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
