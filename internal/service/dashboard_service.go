package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sketch-eval-api/internal/analytics"
	"github.com/noah-isme/sketch-eval-api/internal/dto"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/results"
	"github.com/noah-isme/sketch-eval-api/internal/strokes"
)

const (
	previewRows            = 20
	noIncorrectPredictions = "no incorrect predictions"
	noDrawingNotice        = "no drawing available for this record"
)

// CategoryRequest selects a slice of the category accuracies.
type CategoryRequest struct {
	Mode   analytics.SelectionMode
	N      int
	Custom []string
}

// DashboardService exposes the read views of a results table.
type DashboardService interface {
	Overview(ctx context.Context, key models.SelectionKey) (dto.OverviewResponse, error)
	Refresh(ctx context.Context, key models.SelectionKey) (dto.OverviewResponse, error)
	Categories(ctx context.Context, key models.SelectionKey, req CategoryRequest) (dto.CategoryListResponse, error)
	Incorrect(ctx context.Context, key models.SelectionKey, limit int) (dto.IncorrectListResponse, error)
	IncorrectDetail(ctx context.Context, key models.SelectionKey, index int) (dto.IncorrectDetailResponse, error)
}

type dashboardService struct {
	loader    results.Loader
	sanitizer textSanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(loader results.Loader, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		loader:    loader,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "dashboard_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sketch-eval-api/internal/service/dashboard"),
	}
}

// Refresh reloads the table from upstream when the loader supports it and
// returns the recomputed overview.
func (s *dashboardService) Refresh(ctx context.Context, key models.SelectionKey) (dto.OverviewResponse, error) {
	refresher, ok := s.loader.(results.Refresher)
	if !ok {
		s.logger.Debug().Str("file", key.FileName()).Msg("loader cannot refresh; serving current table")
		return s.Overview(ctx, key)
	}

	if _, err := refresher.Refresh(ctx, key); err != nil {
		s.logger.Error().Err(err).Str("file", key.FileName()).Msg("failed to refresh results table")
		return dto.OverviewResponse{}, err
	}
	return s.Overview(ctx, key)
}

func (s *dashboardService) Overview(ctx context.Context, key models.SelectionKey) (dto.OverviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.overview", trace.WithAttributes(attribute.String("results.file", key.FileName())))
	defer span.End()

	table, err := s.loader.Load(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return dto.OverviewResponse{}, err
	}

	accuracy, err := analytics.OverallAccuracy(table)
	if err != nil {
		recordSpanError(span, err)
		return dto.OverviewResponse{}, err
	}

	correct := 0
	for _, record := range table.Records {
		if record.IsCorrect {
			correct++
		}
	}

	response := dto.OverviewResponse{
		File:            table.FileName,
		Columns:         append([]string{}, table.Columns...),
		TotalRecords:    table.Len(),
		CorrectRecords:  correct,
		Accuracy:        accuracy,
		AccuracyPercent: accuracy * 100,
		Empty:           table.Len() == 0,
		Preview:         make([]dto.RecordResponse, 0, min(previewRows, table.Len())),
		LoadedAt:        table.LoadedAt,
	}

	for _, record := range table.Records {
		if len(response.Preview) == previewRows {
			break
		}
		response.Preview = append(response.Preview, s.recordResponse(record))
	}

	if table.HasColumn(models.ColumnCategory) {
		accuracies, err := analytics.CategoryAccuracies(table)
		if err != nil {
			recordSpanError(span, err)
			return dto.OverviewResponse{}, err
		}
		response.CategoryCount = len(accuracies)
		if len(accuracies) > 0 {
			spread := analytics.Spread(accuracies)
			response.Spread = &dto.SpreadResponse{
				Mean:   spread.Mean,
				Median: spread.Median,
				Min:    spread.Min,
				Max:    spread.Max,
				StdDev: spread.StdDev,
			}
		}
	}

	span.SetAttributes(attribute.Int("results.rows", response.TotalRecords))
	return response, nil
}

func (s *dashboardService) Categories(ctx context.Context, key models.SelectionKey, req CategoryRequest) (dto.CategoryListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.categories", trace.WithAttributes(
		attribute.String("results.file", key.FileName()),
		attribute.String("categories.mode", string(req.Mode)),
	))
	defer span.End()

	table, err := s.loader.Load(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return dto.CategoryListResponse{}, err
	}

	accuracies, err := analytics.CategoryAccuracies(table)
	if err != nil {
		recordSpanError(span, err)
		return dto.CategoryListResponse{}, err
	}

	selected, err := analytics.SelectCategories(accuracies, req.Mode, req.N, req.Custom)
	if err != nil {
		recordSpanError(span, err)
		return dto.CategoryListResponse{}, err
	}

	response := dto.CategoryListResponse{
		File:            table.FileName,
		Filter:          string(req.Mode),
		TotalCategories: len(accuracies),
		Items:           categoryResponses(selected),
	}
	if req.Mode != analytics.SelectCustom {
		response.N = req.N
	}
	return response, nil
}

func (s *dashboardService) Incorrect(ctx context.Context, key models.SelectionKey, limit int) (dto.IncorrectListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.incorrect", trace.WithAttributes(attribute.String("results.file", key.FileName())))
	defer span.End()

	table, err := s.loader.Load(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return dto.IncorrectListResponse{}, err
	}

	rows, err := analytics.IncorrectRows(table)
	if err != nil {
		recordSpanError(span, err)
		return dto.IncorrectListResponse{}, err
	}

	response := dto.IncorrectListResponse{
		File:  table.FileName,
		Total: len(rows),
		Items: make([]dto.IncorrectEntry, 0, len(rows)),
	}
	if len(rows) == 0 {
		response.Message = noIncorrectPredictions
		return response, nil
	}

	for _, record := range rows {
		if limit > 0 && len(response.Items) == limit {
			break
		}
		summary := analytics.DescribeIncorrect(s.sanitizer.record(record))
		response.Items = append(response.Items, dto.IncorrectEntry{Index: summary.Index, Label: summary.Label})
	}

	return response, nil
}

func (s *dashboardService) IncorrectDetail(ctx context.Context, key models.SelectionKey, index int) (dto.IncorrectDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.incorrect_detail", trace.WithAttributes(
		attribute.String("results.file", key.FileName()),
		attribute.Int("results.index", index),
	))
	defer span.End()

	table, err := s.loader.Load(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return dto.IncorrectDetailResponse{}, err
	}

	if err := table.Require(models.ColumnIsCorrect); err != nil {
		recordSpanError(span, err)
		return dto.IncorrectDetailResponse{}, err
	}

	record, err := table.Record(index)
	if err != nil {
		return dto.IncorrectDetailResponse{}, err
	}
	if record.IsCorrect {
		return dto.IncorrectDetailResponse{}, fmt.Errorf("%w: record %d is not an incorrect prediction", models.ErrRecordNotFound, index)
	}

	summary := analytics.DescribeIncorrect(s.sanitizer.record(record))
	response := dto.IncorrectDetailResponse{
		File:   table.FileName,
		Index:  summary.Index,
		Label:  summary.Label,
		Fields: make([]dto.FieldResponse, 0, len(summary.Fields)),
	}
	for _, field := range summary.Fields {
		response.Fields = append(response.Fields, dto.FieldResponse{Name: field.Name, Value: field.Value})
	}

	_, err = strokes.Decode(record.RawStroke)
	switch {
	case err == nil:
		response.RenderAvailable = true
	case errors.Is(err, strokes.ErrNoDrawing):
		response.Notice = noDrawingNotice
	case errors.Is(err, models.ErrMalformedDrawing):
		s.logger.Warn().Err(err).Str("file", table.FileName).Int("index", index).Msg("record carries a malformed drawing")
		response.Notice = err.Error()
	default:
		recordSpanError(span, err)
		return dto.IncorrectDetailResponse{}, err
	}

	return response, nil
}

func (s *dashboardService) recordResponse(record models.EvaluationRecord) dto.RecordResponse {
	record = s.sanitizer.record(record)
	return dto.RecordResponse{
		Index:       record.Index,
		Category:    record.Category,
		Prediction:  record.Prediction,
		IsCorrect:   record.IsCorrect,
		MatchReason: record.MatchReason,
		CountryCode: record.CountryCode,
		Timestamp:   record.Timestamp,
		HasDrawing:  record.HasStroke(),
	}
}

func categoryResponses(accuracies []analytics.CategoryAccuracy) []dto.CategoryAccuracyResponse {
	items := make([]dto.CategoryAccuracyResponse, 0, len(accuracies))
	for _, entry := range accuracies {
		items = append(items, dto.CategoryAccuracyResponse{
			Category: entry.Category,
			Total:    entry.Total,
			Correct:  entry.Correct,
			Accuracy: entry.Accuracy,
			Percent:  entry.Percent(),
		})
	}
	return items
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
