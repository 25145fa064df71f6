package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/evaluation-service/internal/api/http"
	"github.com/spec-kit/evaluation-service/internal/api/http/handlers"
	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/config"
	"github.com/spec-kit/evaluation-service/internal/events"
	"github.com/spec-kit/evaluation-service/internal/observability"
	"github.com/spec-kit/evaluation-service/internal/persistence"
	"github.com/spec-kit/evaluation-service/internal/report"
	"github.com/spec-kit/evaluation-service/internal/repository"
	"github.com/spec-kit/evaluation-service/internal/service"
	"github.com/spec-kit/evaluation-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	subscribers := []worker.Subscriber{service.NewNotificationService(logger, cfg.Notification)}

	if cfg.Broker.URL != "" {
		forwarder, err := events.DialAMQPForwarder(cfg.Broker.URL, cfg.Broker.Queue, logger)
		if err != nil {
			logger.Warn("event forwarding disabled", zap.Error(err))
		} else {
			subscribers = append(subscribers, forwarder)
			defer forwarder.Close()
		}
	}
	logger.Info("event subscribers attached", zap.Int("count", worker.StartSubscribers(dispatcher, subscribers...)))

	var generator report.Generator = report.UnavailableGenerator{}
	if cfg.Gemini.APIKey != "" {
		gemini, err := report.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout())
		if err != nil {
			logger.Warn("report generation disabled", zap.Error(err))
		} else {
			generator = gemini
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, report generation disabled")
	}

	userRepo := repository.NewUserRepository(pool)
	evaluationRepo := repository.NewEvaluationRepository(pool)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: userRepo, Logger: logger})
	userService := service.NewUserService(service.UserDependencies{UserRepo: userRepo, Dispatcher: dispatcher})
	evaluationService := service.NewEvaluationService(service.EvaluationDependencies{
		EvaluationRepo: evaluationRepo,
		Generator:      generator,
		Locker:         report.NewRedisLocker(redis.Client(), logger),
		LockTTL:        cfg.Report.LockTTL(),
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})

	reportWorker := worker.NewReportWorker(evaluationService, cfg.Report.Workers, cfg.Report.QueueSize, logger)
	evaluationService.SetReportQueue(reportWorker)
	reportWorker.Start(ctx)

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.App.CORSAllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Evaluations:    handlers.NewEvaluationsHandler(evaluationService),
		HR:             handlers.NewHRHandler(userService, evaluationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	reportWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
