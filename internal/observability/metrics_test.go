package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	ResultsLoads().WithLabelValues("http", "loaded").Inc()
	DrawingRenders().WithLabelValues("ok").Inc()
	require.GreaterOrEqual(t, testutil.ToFloat64(ResultsLoads().WithLabelValues("http", "loaded")), 1.0)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "results_loads_total")
	require.Contains(t, string(body), "drawing_renders_total")
}
