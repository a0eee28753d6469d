package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/dto"
	"github.com/noah-isme/sketch-eval-api/internal/middleware"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/service"
	"github.com/noah-isme/sketch-eval-api/internal/utils"
)

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseIndexParam(c *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(c.Params("index")))
	if err != nil || index < 0 {
		return 0, models.ErrInvalidParameter
	}
	return index, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// resolveSelection reads the selector query values into a validated key.
func resolveSelection(c *fiber.Ctx, selections service.SelectionService) (models.SelectionKey, error) {
	var query dto.SelectionQuery
	if err := c.QueryParser(&query); err != nil {
		return models.SelectionKey{}, models.ErrInvalidSelection
	}
	return selections.Resolve(query)
}

// statusForError maps domain errors onto HTTP statuses.
func statusForError(err error) int {
	var missing *models.MissingColumnError
	switch {
	case errors.Is(err, models.ErrInvalidSelection), errors.Is(err, models.ErrInvalidParameter), isValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrRecordNotFound), errors.Is(err, service.ErrRenderUnavailable):
		return fiber.StatusNotFound
	case errors.As(err, &missing), errors.Is(err, models.ErrMalformedDrawing):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrLoadFailure):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrPublishingDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the envelope for err. Unexpected failures are logged
// and reported with a generic message.
func respondError(c *fiber.Ctx, logger *zerolog.Logger, err error, action string) error {
	status := statusForError(err)
	switch status {
	case fiber.StatusInternalServerError:
		logger.Error().Err(err).Msg("failed to " + action)
		return utils.SendError(c, status, "failed to "+action)
	case fiber.StatusBadGateway:
		logger.Warn().Err(err).Msg("results table could not be loaded")
	}
	return utils.SendError(c, status, err.Error())
}
