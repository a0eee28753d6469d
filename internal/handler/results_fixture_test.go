package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sketch-eval-api/internal/handler"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/service"
)

type fixtureLoader struct {
	tables    map[string]*models.ResultsTable
	err       error
	refreshes int
}

func (l *fixtureLoader) Refresh(ctx context.Context, key models.SelectionKey) (*models.ResultsTable, error) {
	l.refreshes++
	return l.Load(ctx, key)
}

type fixtureCatalog struct{}

func (fixtureCatalog) ListFiles(context.Context) ([]models.ResultsFile, error) {
	return []models.ResultsFile{{FileName: fixtureFile, Rows: 5, LoadedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}}, nil
}

func (l *fixtureLoader) Load(_ context.Context, key models.SelectionKey) (*models.ResultsTable, error) {
	if l.err != nil {
		return nil, l.err
	}
	table, ok := l.tables[key.FileName()]
	if !ok {
		return nil, models.ErrLoadFailure
	}
	return table, nil
}

type fixturePublisher struct {
	url string
}

func (p fixturePublisher) Publish(_ context.Context, _ string, _ []byte) (string, error) {
	return p.url, nil
}

const fixtureFile = "baseline_stroke_v9_step200.csv"

func fixtureResults() *fixtureLoader {
	table := &models.ResultsTable{
		FileName: fixtureFile,
		Columns: []string{
			models.ColumnCategory, models.ColumnPrediction, models.ColumnIsCorrect,
			models.ColumnMatchReason, models.ColumnCountryCode, models.ColumnRawStroke,
		},
		LoadedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Records: []models.EvaluationRecord{
			{Index: 0, Category: "cat", Prediction: "cat", IsCorrect: true, RawStroke: "[[[0,10],[0,10]]]"},
			{Index: 1, Category: "cat", Prediction: "dog", IsCorrect: false, MatchReason: "shape", CountryCode: "US", RawStroke: "[[[0,10],[0,10]]]"},
			{Index: 2, Category: "dog", Prediction: "dog", IsCorrect: true},
			{Index: 3, Category: "owl", Prediction: "bird", IsCorrect: false},
			{Index: 4, Category: "owl", Prediction: "cat", IsCorrect: false, RawStroke: "[[[0,1],[0]]]"},
		},
	}
	headerOnly := &models.ResultsTable{
		FileName: "image_v9_step200.csv",
		Columns:  []string{models.ColumnCategory, models.ColumnIsCorrect},
	}
	return &fixtureLoader{tables: map[string]*models.ResultsTable{
		fixtureFile:         table,
		headerOnly.FileName: headerOnly,
		"baseline_image_v9_step200.csv": {
			FileName: "baseline_image_v9_step200.csv",
			Columns:  []string{models.ColumnCategory},
			Records:  []models.EvaluationRecord{{Category: "cat"}},
		},
	}}
}

func newTestApp(t *testing.T, loader *fixtureLoader, publisher service.DrawingPublisher) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	validate := validator.New()
	selections := service.NewSelectionService(service.SelectionConfig{
		PromptVariants: []string{"baseline"},
		InputModes:     []string{"stroke", "image"},
		Versions:       []string{"v9"},
		Steps:          []int{200},
		LegacyFiles:    []string{"image_v9_step200.csv"},
	}, fixtureCatalog{}, logger)

	results := handler.NewResultsHandler(
		selections,
		service.NewDashboardService(loader, logger),
		service.NewChartService(loader, logger),
		service.NewExportService(loader, logger),
		validate,
		logger,
	)
	drawings := handler.NewDrawingHandler(
		selections,
		service.NewRenderService(loader, publisher, service.RenderDefaults{ImageSize: 64, LineWidth: 3}, logger),
		validate,
		logger,
	)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/selections", results.Selections)
	api.Post("/results/refresh", results.Refresh)
	group := api.Group("/results")
	results.Register(group)
	drawings.Register(group)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, app *fiber.App, method, target string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
