package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-api/internal/api/http"
	"github.com/spec-kit/helpdesk-api/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-api/internal/config"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/observability"
	"github.com/spec-kit/helpdesk-api/internal/persistence"
	"github.com/spec-kit/helpdesk-api/internal/ratelimit"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	"github.com/spec-kit/helpdesk-api/internal/service"
	"github.com/spec-kit/helpdesk-api/internal/worker"
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
	if cfg.Postgres.SeedUsers {
		if err := persistence.SeedUsers(ctx, pg.PoolHandle(), cfg.Auth.BcryptCost, logger); err != nil {
			logger.Fatal("failed to seed users", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit.Window(), cfg.RateLimit.MaxRequests)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Window(), cfg.RateLimit.MaxRequests, cfg.RateLimit.SweepInterval())
	}
	defer limiter.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	timelineRepo := repository.NewTimelineRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		CommentRepo:  commentRepo,
		TimelineRepo: timelineRepo,
		Dispatcher:   dispatcher,
	})
	commentService := service.NewCommentService(ticketService, commentRepo, timelineRepo, dispatcher)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:  logger,
		Metrics: metrics,
		Timeout: cfg.App.RequestTimeout(),
		Tokens:  authService.TokenManager(),
		Limiter: limiter,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(pg, redis),
		Auth:        handlers.NewAuthHandler(authService),
		Tickets:     handlers.NewTicketsHandler(ticketService),
		Comments:    handlers.NewCommentsHandler(commentService),
		Idempotency: httptransport.Idempotency(idempotencyRepo, logger, metrics),
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
