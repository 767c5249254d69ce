package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-birthday-card/internal/config"
	"go-birthday-card/internal/handler"
	"go-birthday-card/internal/metrics"
	"go-birthday-card/internal/middleware"
	"go-birthday-card/internal/ratelimit"
)

const maxRequestBody = 256 << 10

type Handlers struct {
	Health   *handler.HealthHandler
	Cards    *handler.CardHandler
	Checkout *handler.CheckoutHandler
	Donation *handler.DonationHandler
	Cron     *handler.CronHandler
	Admin    *handler.AdminHandler
}

// RouteLimits are the per-client limits on write endpoints.
type RouteLimits struct {
	Create   ratelimit.Limiter
	Checkout ratelimit.Limiter
	Reply    ratelimit.Limiter
	Donation ratelimit.Limiter

	// AdminSession guards the token-for-session exchange against guessing.
	AdminSession ratelimit.Limiter
}

func DefaultRouteLimits() RouteLimits {
	return RouteLimits{
		Create:   ratelimit.NewSlidingWindow(5, time.Minute),
		Checkout: ratelimit.NewSlidingWindow(5, time.Minute),
		Reply:    ratelimit.NewSlidingWindow(10, time.Minute),
		Donation: ratelimit.NewSlidingWindow(30, time.Minute),

		AdminSession: ratelimit.NewSlidingWindow(5, time.Minute),
	}
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, limits RouteLimits, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(middleware.MaxBodyBytes(maxRequestBody))

		api.With(middleware.RouteLimit("create", limits.Create)).Post("/cards", h.Cards.Create)
		api.Get("/cards/{slug}", h.Cards.Get)
		api.With(middleware.RouteLimit("reply", limits.Reply)).Post("/cards/{slug}/replies", h.Cards.Reply)

		api.Route("/checkout", func(co chi.Router) {
			co.With(middleware.RouteLimit("checkout", limits.Checkout)).Post("/orders", h.Checkout.CreateOrder)
			co.Post("/orders/{order_id}/capture", h.Checkout.Capture)
			co.Post("/capture", h.Checkout.Capture)
			co.Post("/webhook", h.Checkout.Webhook)
		})

		api.With(middleware.RouteLimit("donation", limits.Donation)).Post("/donations/track", h.Donation.Track)
		api.Get("/donations/options", h.Donation.Options)

		api.With(authMiddleware.RequireCron).Get("/cron/cleanup", h.Cron.Cleanup)
		api.With(authMiddleware.RequireCron).Post("/cron/cleanup", h.Cron.Cleanup)

		api.Route("/admin", func(admin chi.Router) {
			admin.With(middleware.RouteLimit("admin-session", limits.AdminSession)).Post("/session", h.Admin.Session)

			admin.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAdmin)
				protected.Get("/cards", h.Admin.ListCards)
				protected.Get("/cards/{id}", h.Admin.GetCard)
				protected.Patch("/cards/{id}", h.Admin.UpdateCard)
				protected.Delete("/cards/{id}", h.Admin.DeleteCard)
				protected.Get("/payments", h.Admin.ListPayments)
				protected.Get("/deletions", h.Admin.ListDeletions)
				protected.Get("/donations/analytics", h.Admin.DonationAnalytics)
			})
		})
	})

	return r
}
