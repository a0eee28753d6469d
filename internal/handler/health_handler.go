package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sketch-eval-api/internal/config"
	"github.com/noah-isme/sketch-eval-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	ResultsSource string    `json:"results_source"`
	Publishing    bool      `json:"publishing"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	source := cfg.ResultsBaseURL
	if cfg.ResultsDir != "" {
		source = cfg.ResultsDir
	}

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			ResultsSource: source,
			Publishing:    cfg.CloudinaryEnabled(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
