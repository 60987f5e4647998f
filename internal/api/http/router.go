package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/api/http/handlers"
	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Assets         *handlers.AssetsHandler
	Users          *handlers.UsersHandler
	Org            *handlers.OrgHandler
	AuthMiddleware *auth.AuthMiddleware
	SessionPurger  auth.ExpiredSessionPurger
	// LoginLimiter throttles login per client IP; nil disables it.
	LoginLimiter ratelimit.Limiter
	Logger       *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	requireAuth := cfg.AuthMiddleware.Handle

	authGroup := api.Group("/auth")
	if cfg.SessionPurger != nil {
		authGroup.Use(auth.PurgeExpired(cfg.SessionPurger, logger))
	}
	loginHandlers := []fiber.Handler{}
	if cfg.LoginLimiter != nil {
		loginHandlers = append(loginHandlers, ratelimit.Middleware(cfg.LoginLimiter, logger))
	}
	authGroup.Post("/login", append(loginHandlers, cfg.Auth.Login)...)
	authGroup.Post("/register", cfg.AuthMiddleware.Optional, cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/health", cfg.Auth.Health)
	authGroup.Get("/validate", requireAuth, cfg.Auth.Validate)
	authGroup.Get("/profile", requireAuth, cfg.Auth.Profile)
	authGroup.Get("/diagnose", requireAuth, auth.RequireRole(domain.RoleAdmin), cfg.Auth.Diagnose)

	tickets := api.Group("/tickets", requireAuth)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", auth.RequirePermission(domain.PermCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/attachment", cfg.Tickets.Attachment)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/updates", cfg.Tickets.AddUpdate)
	tickets.Delete("/:id", auth.RequirePermission(domain.PermDeleteTickets), cfg.Tickets.DeleteTicket)

	manageAssets := auth.RequirePermission(domain.PermManageAssets)
	assets := api.Group("/assets", requireAuth)
	assets.Get("/", cfg.Assets.List)
	assets.Get("/:id", cfg.Assets.Get)
	assets.Get("/:id/history", cfg.Assets.History)
	assets.Post("/", manageAssets, cfg.Assets.Create)
	assets.Put("/:id", manageAssets, cfg.Assets.Update)
	assets.Delete("/:id", manageAssets, cfg.Assets.Delete)

	users := api.Group("/users", requireAuth, auth.RequireRole(domain.RoleAdmin))
	users.Get("/", cfg.Users.List)
	users.Get("/stats", cfg.Users.Stats)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/", cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Put("/:id/password", cfg.Users.ChangePassword)
	users.Delete("/:id", cfg.Users.Delete)

	manageGroups := auth.RequirePermission(domain.PermManageGroups)
	groups := api.Group("/groups", requireAuth)
	groups.Get("/", cfg.Org.ListGroups)
	groups.Post("/", manageGroups, cfg.Org.CreateGroup)
	groups.Delete("/:id", manageGroups, cfg.Org.DeleteGroup)

	adminOnly := auth.RequireRole(domain.RoleAdmin)
	roles := api.Group("/roles", requireAuth)
	roles.Get("/", cfg.Org.ListRoles)
	roles.Post("/", adminOnly, cfg.Org.CreateRole)
	roles.Put("/:id", adminOnly, cfg.Org.UpdateRole)
	roles.Delete("/:id", adminOnly, cfg.Org.DeleteRole)
}
