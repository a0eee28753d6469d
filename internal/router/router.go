package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sketch-eval-api/internal/config"
	"github.com/noah-isme/sketch-eval-api/internal/handler"
	"github.com/noah-isme/sketch-eval-api/internal/middleware"
	"github.com/noah-isme/sketch-eval-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ResultsHandler *handler.ResultsHandler
	DrawingHandler *handler.DrawingHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.ResultsHandler != nil {
		api.Get("/selections", deps.ResultsHandler.Selections)
		deps.ResultsHandler.Register(api.Group("/results"))
	}

	// Rasterizing, uploading and upstream refreshes share a per-IP request budget.
	limit := middleware.RateLimit("drawings", cfg.RenderRateLimit, time.Minute)
	if deps.ResultsHandler != nil {
		api.Post("/results/refresh", limit, deps.ResultsHandler.Refresh)
	}
	if deps.DrawingHandler != nil {
		deps.DrawingHandler.Register(api.Group("/results"), limit)
	}
}
