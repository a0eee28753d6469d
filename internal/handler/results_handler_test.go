package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/sketch-eval-api/internal/dto"
)

const overviewContract = `{
	"type": "object",
	"required": ["success", "message", "data"],
	"properties": {
		"success": {"const": true},
		"message": {"type": "string"},
		"data": {
			"type": "object",
			"required": ["file", "total_records", "accuracy", "accuracy_percent", "empty", "category_count", "preview"],
			"properties": {
				"file": {"type": "string"},
				"total_records": {"type": "integer", "minimum": 0},
				"accuracy": {"type": "number", "minimum": 0, "maximum": 1},
				"accuracy_percent": {"type": "number", "minimum": 0, "maximum": 100},
				"empty": {"type": "boolean"},
				"category_count": {"type": "integer"},
				"preview": {
					"type": "array",
					"maxItems": 20,
					"items": {
						"type": "object",
						"required": ["index", "category", "is_correct", "has_drawing"]
					}
				}
			}
		}
	}
}`

const incorrectDetailContract = `{
	"type": "object",
	"required": ["success", "data"],
	"properties": {
		"data": {
			"type": "object",
			"required": ["index", "label", "fields", "render_available"],
			"properties": {
				"label": {"type": "string", "pattern": "^.+ \\(Predicted: .*\\)$"},
				"fields": {
					"type": "array",
					"items": {"type": "object", "required": ["name", "value"]}
				},
				"render_available": {"type": "boolean"}
			}
		}
	}
}`

func validateContract(t *testing.T, schema string, body []byte) {
	t.Helper()
	compiled, err := jsonschema.CompileString("contract.json", schema)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, compiled.Validate(payload))
}

func TestResultsHandlerOverviewContract(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/overview")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	validateContract(t, overviewContract, body)

	var payload struct {
		Data dto.OverviewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, fixtureFile, payload.Data.File)
	require.Equal(t, 5, payload.Data.TotalRecords)
	require.InDelta(t, 40.0, payload.Data.AccuracyPercent, 1e-9)
}

func TestResultsHandlerOverviewEmptyTable(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/overview?file=image_v9_step200.csv")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "results table is empty", body.Message)
}

func TestResultsHandlerSelectionErrors(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	cases := map[string]int{
		"/api/v1/results/overview?mode=audio":                    fiber.StatusBadRequest,
		"/api/v1/results/overview?step=abc":                      fiber.StatusBadRequest,
		"/api/v1/results/overview?file=stroke_v9_step200.csv":    fiber.StatusBadRequest,
		"/api/v1/results/overview?version=v7":                    fiber.StatusBadGateway,
		"/api/v1/results/overview?mode=image":                    fiber.StatusUnprocessableEntity,
		"/api/v1/results/categories?filter=sideways":             fiber.StatusBadRequest,
		"/api/v1/results/categories?n=3":                         fiber.StatusBadRequest,
		"/api/v1/results/categories?n=21":                        fiber.StatusBadRequest,
		"/api/v1/results/incorrect?limit=-1":                     fiber.StatusBadRequest,
		"/api/v1/results/incorrect/abc":                          fiber.StatusBadRequest,
		"/api/v1/results/incorrect/0":                            fiber.StatusNotFound,
		"/api/v1/results/incorrect/99":                           fiber.StatusNotFound,
		"/api/v1/results/categories/chart.png?filter=custom&custom=zebra": fiber.StatusNotFound,
	}

	for target, status := range cases {
		resp := doRequest(t, app, http.MethodGet, target)
		require.Equal(t, status, resp.StatusCode, target)

		var body envelope
		decodeResponse(t, resp, &body)
		require.False(t, body.Success, target)
		require.NotEmpty(t, body.Message, target)
	}
}

func TestResultsHandlerUnexpectedErrorIsInternal(t *testing.T) {
	loader := fixtureResults()
	loader.err = errors.New("unexpected")
	app := newTestApp(t, loader, nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/overview")
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "failed to build overview", body.Message)
}

func TestResultsHandlerCategories(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/categories?filter=bottom&n=5")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.CategoryListResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "bottom", body.Data.Filter)
	require.Equal(t, 3, body.Data.TotalCategories)
	require.Len(t, body.Data.Items, 3)
	require.Equal(t, "dog", body.Data.Items[0].Category)
	require.Equal(t, "owl", body.Data.Items[2].Category)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/results/categories?filter=custom&custom=%20owl%20,cat,")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data.Items, 2)
	require.Equal(t, "cat", body.Data.Items[0].Category)
	require.Equal(t, "owl", body.Data.Items[1].Category)
}

func TestResultsHandlerCategoryChart(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/categories/chart.png?filter=top&n=5")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestResultsHandlerIncorrect(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/incorrect?limit=2")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.IncorrectListResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, 3, body.Data.Total)
	require.Equal(t, []dto.IncorrectEntry{
		{Index: 1, Label: "cat (Predicted: dog)"},
		{Index: 3, Label: "owl (Predicted: bird)"},
	}, body.Data.Items)
}

func TestResultsHandlerIncorrectDetail(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/incorrect/1?variant=baseline")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	validateContract(t, incorrectDetailContract, body)

	var payload struct {
		Data dto.IncorrectDetailResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.True(t, payload.Data.RenderAvailable)
	require.Equal(t, "/api/v1/results/incorrect/1/drawing.png?variant=baseline", payload.Data.DrawingURL)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/results/incorrect/3")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var notice envelope
	decodeResponse(t, resp, &notice)
	require.True(t, notice.Success)
	require.Equal(t, "no drawing available for this record", notice.Message)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/results/incorrect/4")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeResponse(t, resp, &notice)
	require.Contains(t, notice.Message, "malformed drawing")
}

func TestResultsHandlerExport(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/results/export.xlsx")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "baseline_stroke_v9_step200.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Categories", "Incorrect"}, f.GetSheetList())
}

func TestResultsHandlerSelections(t *testing.T) {
	app := newTestApp(t, fixtureResults(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/selections")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.SelectionOptions `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, []int{200}, body.Data.Steps)
	require.Equal(t, []string{"image_v9_step200.csv"}, body.Data.LegacyFiles)
	require.Len(t, body.Data.StoredFiles, 1)
	require.Equal(t, fixtureFile, body.Data.StoredFiles[0].FileName)
	require.Equal(t, 5, body.Data.StoredFiles[0].Rows)
}

func TestResultsHandlerRefresh(t *testing.T) {
	loader := fixtureResults()
	app := newTestApp(t, loader, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/results/refresh?mode=stroke")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Message string               `json:"message"`
		Data    dto.OverviewResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "results table refreshed", body.Message)
	require.Equal(t, fixtureFile, body.Data.File)
	require.Equal(t, 5, body.Data.TotalRecords)
	require.Equal(t, 1, loader.refreshes)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/results/refresh?mode=audio")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, loader.refreshes)
}
