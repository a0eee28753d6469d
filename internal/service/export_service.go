package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sketch-eval-api/internal/analytics"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/results"
)

const (
	categoriesSheet = "Categories"
	incorrectSheet  = "Incorrect"
)

// ExportService builds spreadsheet exports of a results table.
type ExportService interface {
	Export(ctx context.Context, key models.SelectionKey) ([]byte, error)
}

type exportService struct {
	loader    results.Loader
	sanitizer textSanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewExportService constructs the export service.
func NewExportService(loader results.Loader, logger zerolog.Logger) ExportService {
	return &exportService{
		loader:    loader,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "export_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sketch-eval-api/internal/service/export"),
	}
}

// Export writes an XLSX workbook with per-category accuracy and the incorrect predictions.
func (s *exportService) Export(ctx context.Context, key models.SelectionKey) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "export.workbook", trace.WithAttributes(attribute.String("results.file", key.FileName())))
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

	incorrect, err := analytics.IncorrectRows(table)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", categoriesSheet); err != nil {
		return nil, err
	}
	if err := writeRows(f, categoriesSheet, categoryRows(accuracies)); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(incorrectSheet); err != nil {
		return nil, err
	}
	if err := writeRows(f, incorrectSheet, s.incorrectRows(incorrect)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Debug().Str("file", table.FileName).Int("categories", len(accuracies)).Int("incorrect", len(incorrect)).Msg("workbook exported")
	return buf.Bytes(), nil
}

func categoryRows(accuracies []analytics.CategoryAccuracy) [][]interface{} {
	rows := make([][]interface{}, 0, len(accuracies)+1)
	rows = append(rows, []interface{}{"Category", "Total", "Correct", "Accuracy (%)"})
	for _, entry := range accuracies {
		rows = append(rows, []interface{}{entry.Category, entry.Total, entry.Correct, entry.Percent()})
	}
	return rows
}

func (s *exportService) incorrectRows(records []models.EvaluationRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(records)+1)
	rows = append(rows, []interface{}{"Index", "Category", "Prediction", "Match Reason", "Country", "Timestamp"})
	for _, record := range records {
		record = s.sanitizer.record(record)
		rows = append(rows, []interface{}{record.Index, record.Category, record.Prediction, record.MatchReason, record.CountryCode, record.Timestamp})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
