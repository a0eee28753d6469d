package handler

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/analytics"
	"github.com/noah-isme/sketch-eval-api/internal/dto"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/service"
	"github.com/noah-isme/sketch-eval-api/internal/utils"
)

const (
	defaultCategoryCount = 10
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ResultsHandler serves the read views of a results table.
type ResultsHandler struct {
	selections service.SelectionService
	dashboard  service.DashboardService
	charts     service.ChartService
	exports    service.ExportService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewResultsHandler constructs a results handler.
func NewResultsHandler(
	selections service.SelectionService,
	dashboard service.DashboardService,
	charts service.ChartService,
	exports service.ExportService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *ResultsHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ResultsHandler{
		selections: selections,
		dashboard:  dashboard,
		charts:     charts,
		exports:    exports,
		validate:   validate,
		logger:     logger.With().Str("component", "results_handler").Logger(),
	}
}

// Register wires results routes.
func (h *ResultsHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/categories", h.categories)
	router.Get("/categories/chart.png", h.categoryChart)
	router.Get("/incorrect", h.incorrect)
	router.Get("/incorrect/:index", h.incorrectDetail)
	router.Get("/export.xlsx", h.export)
}

// Selections returns the selector options handler.
func (h *ResultsHandler) Selections(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "selection options retrieved", h.selections.Options(c.UserContext()))
}

// Refresh reloads the selected table from its upstream source.
func (h *ResultsHandler) Refresh(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	result, err := h.dashboard.Refresh(c.UserContext(), key)
	if err != nil {
		return respondError(c, logger, err, "refresh results table")
	}

	logger.Info().Str("file", result.File).Int("rows", result.TotalRecords).Msg("results table refreshed")
	return utils.SendSuccess(c, "results table refreshed", result)
}

func (h *ResultsHandler) overview(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	result, err := h.dashboard.Overview(c.UserContext(), key)
	if err != nil {
		return respondError(c, logger, err, "build overview")
	}

	message := "overview retrieved"
	if result.Empty {
		message = "results table is empty"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *ResultsHandler) categories(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	req, err := h.categoryRequest(c)
	if err != nil {
		return respondError(c, logger, err, "parse category query")
	}

	result, err := h.dashboard.Categories(c.UserContext(), key, req)
	if err != nil {
		return respondError(c, logger, err, "compute category accuracy")
	}

	return utils.SendSuccess(c, "category accuracy retrieved", result)
}

func (h *ResultsHandler) categoryChart(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	req, err := h.categoryRequest(c)
	if err != nil {
		return respondError(c, logger, err, "parse category query")
	}

	image, err := h.charts.CategoryChart(c.UserContext(), key, req)
	if err != nil {
		return respondError(c, logger, err, "render category chart")
	}

	return utils.SendBinary(c, "image/png", image)
}

func (h *ResultsHandler) incorrect(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	var query dto.IncorrectQuery
	if err := c.QueryParser(&query); err != nil {
		return respondError(c, logger, models.ErrInvalidParameter, "parse incorrect query")
	}
	if err := h.validate.Struct(query); err != nil {
		return respondError(c, logger, err, "parse incorrect query")
	}

	result, err := h.dashboard.Incorrect(c.UserContext(), key, query.Limit)
	if err != nil {
		return respondError(c, logger, err, "list incorrect predictions")
	}

	message := "incorrect predictions retrieved"
	if result.Message != "" {
		message = result.Message
	}
	return utils.SendSuccess(c, message, result)
}

func (h *ResultsHandler) incorrectDetail(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	index, err := parseIndexParam(c)
	if err != nil {
		return respondError(c, logger, fmt.Errorf("%w: invalid record index", err), "parse record index")
	}

	result, err := h.dashboard.IncorrectDetail(c.UserContext(), key, index)
	if err != nil {
		return respondError(c, logger, err, "describe incorrect prediction")
	}

	if result.RenderAvailable {
		result.DrawingURL = drawingURL(c)
	}

	message := "incorrect prediction retrieved"
	if result.Notice != "" {
		message = result.Notice
	}
	return utils.SendSuccess(c, message, result)
}

func (h *ResultsHandler) export(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	key, err := resolveSelection(c, h.selections)
	if err != nil {
		return respondError(c, logger, err, "resolve selection")
	}

	workbook, err := h.exports.Export(c.UserContext(), key)
	if err != nil {
		return respondError(c, logger, err, "export results")
	}

	filename := strings.TrimSuffix(key.FileName(), ".csv") + ".xlsx"
	return utils.SendAttachment(c, xlsxContentType, filename, workbook)
}

func (h *ResultsHandler) categoryRequest(c *fiber.Ctx) (service.CategoryRequest, error) {
	var query dto.CategoryQuery
	if err := c.QueryParser(&query); err != nil {
		return service.CategoryRequest{}, fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
	}
	query.Filter = strings.ToLower(strings.TrimSpace(query.Filter))
	query.Custom = splitAndTrim(c.Query("custom"))

	if err := h.validate.Struct(query); err != nil {
		return service.CategoryRequest{}, err
	}

	mode, err := analytics.ParseSelectionMode(query.Filter)
	if err != nil {
		return service.CategoryRequest{}, err
	}

	n := query.N
	if n == 0 {
		n = defaultCategoryCount
	}
	return service.CategoryRequest{Mode: mode, N: n, Custom: query.Custom}, nil
}

func drawingURL(c *fiber.Ctx) string {
	url := strings.TrimRight(c.Path(), "/") + "/drawing.png"
	if query := string(c.Request().URI().QueryString()); query != "" {
		url += "?" + query
	}
	return url
}
