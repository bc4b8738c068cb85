package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/social-login/internal/api/http/handlers"
	"github.com/spec-kit/social-login/internal/auth"
	"github.com/spec-kit/social-login/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Public  *handlers.PublicHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Gate    *auth.Gate
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Probes and metrics are served before the
// authentication gate; every other route runs behind it, and route guards
// such as auth.RequireIdentity always come after the gate. Paths not listed
// here need an identity too: anonymous callers get 403, authenticated ones 404.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(cfg.Gate.Handle)

	app.Get("/", cfg.Public.Home)
	app.Get("/api/public", cfg.Public.Public)

	provider := cfg.Auth.ProviderName()
	app.Get("/oauth2/authorization/"+provider, cfg.Auth.Authorize)
	app.Get("/login/oauth2/code/"+provider, cfg.Auth.Callback)
	app.Post("/logout", cfg.Auth.Logout)

	app.Get("/api/me", auth.RequireIdentity(), cfg.Users.Me)
	app.Get("/secure", auth.RequireIdentity(), cfg.Users.Attributes)

	app.Use(auth.RequireIdentity())
}
