package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/dto"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/service"
	"github.com/noah-isme/sketch-eval-api/internal/utils"
)

// DrawingHandler renders and publishes record drawings.
type DrawingHandler struct {
	selections service.SelectionService
	renders    service.RenderService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewDrawingHandler constructs a drawing handler.
func NewDrawingHandler(selections service.SelectionService, renders service.RenderService, validate *validator.Validate, logger zerolog.Logger) *DrawingHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &DrawingHandler{
		selections: selections,
		renders:    renders,
		validate:   validate,
		logger:     logger.With().Str("component", "drawing_handler").Logger(),
	}
}

// Register wires drawing routes. guards run before each handler.
func (h *DrawingHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/incorrect/:index/drawing.png", chain(guards, h.render)...)
	router.Post("/incorrect/:index/drawing/publish", chain(guards, h.publish)...)
}

func (h *DrawingHandler) render(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, index, query, err := h.parse(c)
	if err != nil {
		return respondError(c, logger, err, "parse drawing request")
	}

	image, err := h.renders.Render(c.UserContext(), key, index, query.Size, query.Width)
	if err != nil {
		return respondError(c, logger, err, "render drawing")
	}

	return utils.SendBinary(c, "image/png", image)
}

func (h *DrawingHandler) publish(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, index, query, err := h.parse(c)
	if err != nil {
		return respondError(c, logger, err, "parse drawing request")
	}

	result, err := h.renders.Publish(c.UserContext(), key, index, query.Size, query.Width)
	if err != nil {
		return respondError(c, logger, err, "publish drawing")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "drawing published", result)
}

func (h *DrawingHandler) parse(c *fiber.Ctx) (models.SelectionKey, int, dto.RenderQuery, error) {
	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return models.SelectionKey{}, 0, dto.RenderQuery{}, err
	}

	index, err := parseIndexParam(c)
	if err != nil {
		return models.SelectionKey{}, 0, dto.RenderQuery{}, fmt.Errorf("%w: invalid record index", err)
	}

	var query dto.RenderQuery
	if err := c.QueryParser(&query); err != nil {
		return models.SelectionKey{}, 0, dto.RenderQuery{}, fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
	}
	if err := h.validate.Struct(query); err != nil {
		return models.SelectionKey{}, 0, dto.RenderQuery{}, err
	}

	return key, index, query, nil
}

func chain(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, handler)
}
