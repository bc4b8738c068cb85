package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/social-login/internal/api/http"
	"github.com/spec-kit/social-login/internal/api/http/handlers"
	"github.com/spec-kit/social-login/internal/auth"
	"github.com/spec-kit/social-login/internal/config"
	"github.com/spec-kit/social-login/internal/events"
	"github.com/spec-kit/social-login/internal/federation"
	"github.com/spec-kit/social-login/internal/observability"
	"github.com/spec-kit/social-login/internal/persistence"
	"github.com/spec-kit/social-login/internal/repository"
	"github.com/spec-kit/social-login/internal/service"
	"github.com/spec-kit/social-login/internal/worker"
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

	if !cfg.Auth.CookieSecure {
		logger.Warn("AUTH_COOKIE_SECURE=false; access token cookie will be sent over plain HTTP")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signingKey, err := auth.NewSigningKey(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("invalid signing secret", zap.Error(err))
	}
	tokens, err := auth.NewTokenService(signingKey, cfg.Auth.TokenLifetime())
	if err != nil {
		logger.Fatal("failed to init token service", zap.Error(err))
	}
	cookies := auth.NewCookieTransport(cfg.Auth.CookieName, cfg.Auth.CookieSecure)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var users repository.UserRepository
	if pg.Enabled() {
		users = repository.NewUserRepository(pg.PoolHandle())
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var states federation.StateStore = federation.NewMemoryStateStore(nil)
	if redis.Enabled() {
		states = federation.NewRedisStateStore(redis.Client)
	}

	provider, err := federation.NewOAuth2Provider(cfg.OAuth)
	if err != nil {
		logger.Fatal("failed to init identity provider", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	loginService := service.NewLoginService(*cfg, service.LoginDependencies{
		Tokens:     tokens,
		Cookies:    cookies,
		Users:      users,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		FrontendURL: cfg.App.FrontendURL,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Public: handlers.NewPublicHandler(),
		Auth: handlers.NewAuthHandler(handlers.AuthHandlerConfig{
			Provider:     provider,
			States:       states,
			Login:        loginService,
			StateTTL:     cfg.OAuth.StateTTL(),
			SecureCookie: cfg.Auth.CookieSecure,
			Logger:       logger,
		}),
		Users:   handlers.NewUserHandler(),
		Gate:    auth.NewGate(tokens, cookies, metrics),
		Metrics: metrics,
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
