package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/dev-serdi/helpdesk-core/internal/api/http"
	"github.com/dev-serdi/helpdesk-core/internal/api/http/handlers"
	"github.com/dev-serdi/helpdesk-core/internal/audit"
	"github.com/dev-serdi/helpdesk-core/internal/auth"
	"github.com/dev-serdi/helpdesk-core/internal/config"
	"github.com/dev-serdi/helpdesk-core/internal/events"
	"github.com/dev-serdi/helpdesk-core/internal/lifecycle"
	"github.com/dev-serdi/helpdesk-core/internal/notify"
	"github.com/dev-serdi/helpdesk-core/internal/observability"
	"github.com/dev-serdi/helpdesk-core/internal/persistence"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
	"github.com/dev-serdi/helpdesk-core/internal/service"
	"github.com/dev-serdi/helpdesk-core/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	revisionRepo := repository.NewRevisionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	dispatcher := events.NewAsyncDispatcher(logger, cfg.Notify.EventQueueSize)
	defer dispatcher.Close()

	publisher := notify.NewPublisher(notify.PublisherDependencies{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Redis:            redis.Client,
		Logger:           logger,
		Metrics:          metrics,
		TopicPrefix:      cfg.Notify.TopicPrefix,
	})
	worker.StartNotificationWorker(publisher, dispatcher)

	machine := lifecycle.NewMachine(lifecycle.Dependencies{
		TicketRepo:    ticketRepo,
		RevisionRepo:  revisionRepo,
		DirectoryRepo: directoryRepo,
		UserRepo:      userRepo,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})

	auditEngine := audit.NewEngine(logger)
	ticketService := service.NewTicketService(ticketRepo, revisionRepo, auditEngine)
	notificationService := service.NewNotificationService(notificationRepo)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokenManager)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(machine, ticketService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
