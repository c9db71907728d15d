package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/eshop-auth/internal/config"
	"github.com/pribylovaa/eshop-auth/internal/gateway/http/handlers"
	"github.com/pribylovaa/eshop-auth/internal/gateway/http/middleware"
	"github.com/pribylovaa/eshop-auth/internal/models"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger        *slog.Logger
	Timeout       time.Duration
	VerifyTimeout time.Duration
	BasePath      string // например, "/api"; пустой — роуты на корне.
	Cookie        config.CookieConfig
	// Limiter ограничивает login/register; nil — без лимита.
	Limiter *middleware.IPRateLimiter
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(auth authv1.AuthServiceClient, opts Options) http.Handler {
	root := chi.NewRouter()

	// внешний -> внутренний; RequestID до Logging.
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(auth, opts.Cookie)

	cookieName := ""
	if opts.Cookie.Enabled {
		cookieName = opts.Cookie.Name
	}
	guard := middleware.TokenGuard(auth, middleware.GuardOptions{
		Timeout:    opts.VerifyTimeout,
		CookieName: cookieName,
	})
	limit := middleware.RateLimit(opts.Limiter)

	routes := func(r chi.Router) {
		r.With(limit).Post("/auth/register", h.Register)
		r.With(limit).Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/logout", h.Logout)

		r.With(guard).Get("/auth/me", h.Me)
		admin := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
		r.Method(http.MethodGet, "/admin/ping", middleware.Chain(http.HandlerFunc(h.AdminPing), guard, admin))
	}

	if opts.BasePath != "" {
		root.Route(opts.BasePath, routes)
		return root
	}

	routes(root)
	return root
}
