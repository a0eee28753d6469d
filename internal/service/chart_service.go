package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wcharczuk/go-chart/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sketch-eval-api/internal/analytics"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/results"
)

const (
	chartBarWidth   = 40
	chartBarSpacing = 24
	chartMinWidth   = 640
	chartHeight     = 480
)

// ChartService draws category accuracy charts.
type ChartService interface {
	CategoryChart(ctx context.Context, key models.SelectionKey, req CategoryRequest) ([]byte, error)
}

type chartService struct {
	loader results.Loader
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewChartService constructs the chart service.
func NewChartService(loader results.Loader, logger zerolog.Logger) ChartService {
	return &chartService{
		loader: loader,
		logger: logger.With().Str("component", "chart_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/sketch-eval-api/internal/service/chart"),
	}
}

// CategoryChart renders the selected categories as a PNG bar chart of percent accuracy.
func (s *chartService) CategoryChart(ctx context.Context, key models.SelectionKey, req CategoryRequest) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "chart.categories", trace.WithAttributes(
		attribute.String("results.file", key.FileName()),
		attribute.String("categories.mode", string(req.Mode)),
	))
	defer span.End()

	table, err := s.loader.Load(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	accuracies, err := analytics.CategoryAccuracies(table)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	selected, err := analytics.SelectCategories(accuracies, req.Mode, req.N, req.Custom)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no categories to chart", models.ErrRecordNotFound)
	}

	bars := make([]chart.Value, 0, len(selected))
	for _, entry := range selected {
		bars = append(bars, chart.Value{Label: entry.Category, Value: entry.Percent()})
	}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("Category accuracy (%s)", table.FileName),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		Width:      max(chartMinWidth, len(bars)*(chartBarWidth+chartBarSpacing)+120),
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		YAxis: chart.YAxis{
			Name:  "Accuracy (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		recordSpanError(span, err)
		s.logger.Error().Err(err).Str("file", table.FileName).Msg("failed to render category chart")
		return nil, fmt.Errorf("render category chart: %w", err)
	}

	return buf.Bytes(), nil
}
