package results

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// structFields maps CSV columns onto EvaluationRecord fields for partial validation.
var structFields = map[string]string{
	models.ColumnCategory:    "Category",
	models.ColumnPrediction:  "Prediction",
	models.ColumnIsCorrect:   "IsCorrect",
	models.ColumnMatchReason: "MatchReason",
	models.ColumnCountryCode: "CountryCode",
	models.ColumnTimestamp:   "Timestamp",
	models.ColumnRawStroke:   "RawStroke",
}

// Parser turns results CSV files into validated tables.
type Parser struct {
	validate *validator.Validate
}

// NewParser builds a parser using the shared validator.
func NewParser(validate *validator.Validate) *Parser {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Parser{validate: validate}
}

// Parse reads the CSV payload. Known columns are decoded into records; unknown
// columns are ignored. A row that breaks the schema fails the whole load.
func (p *Parser) Parse(key models.SelectionKey, data []byte) (*models.ResultsTable, error) {
	if err := sniff(data); err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", models.ErrLoadFailure, key.FileName())
		}
		return nil, fmt.Errorf("%w: read header: %v", models.ErrLoadFailure, err)
	}

	positions := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, known := structFields[name]; !known {
			continue
		}
		if _, dup := positions[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", models.ErrLoadFailure, name)
		}
		positions[name] = i
		columns = append(columns, name)
	}

	partial := make([]string, 0, len(columns))
	for _, column := range columns {
		partial = append(partial, structFields[column])
	}

	table := &models.ResultsTable{
		Key:      key,
		FileName: key.FileName(),
		Columns:  columns,
		Records:  make([]models.EvaluationRecord, 0),
	}

	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrLoadFailure, err)
		}

		record, err := decodeRow(fields, positions)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrLoadFailure, line, err)
		}
		if len(partial) > 0 {
			if err := p.validate.StructPartial(record, partial...); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", models.ErrLoadFailure, line, err)
			}
		}

		record.Index = len(table.Records)
		table.Records = append(table.Records, record)
	}

	return table, nil
}

func decodeRow(fields []string, positions map[string]int) (models.EvaluationRecord, error) {
	value := func(column string) string {
		if idx, ok := positions[column]; ok && idx < len(fields) {
			return strings.TrimSpace(fields[idx])
		}
		return ""
	}

	record := models.EvaluationRecord{
		Category:    value(models.ColumnCategory),
		Prediction:  value(models.ColumnPrediction),
		MatchReason: value(models.ColumnMatchReason),
		CountryCode: value(models.ColumnCountryCode),
		Timestamp:   value(models.ColumnTimestamp),
		RawStroke:   value(models.ColumnRawStroke),
	}

	if _, ok := positions[models.ColumnIsCorrect]; ok {
		correct, err := strconv.ParseBool(value(models.ColumnIsCorrect))
		if err != nil {
			return record, fmt.Errorf("is_correct: %q is not a boolean", value(models.ColumnIsCorrect))
		}
		record.IsCorrect = correct
	}

	return record, nil
}

// sniff rejects payloads that are not plain text, such as HTML error pages.
func sniff(data []byte) error {
	detected := mimetype.Detect(data)
	if detected.Is("text/csv") || detected.Is("text/plain") {
		return nil
	}
	return fmt.Errorf("%w: unexpected content type %s", models.ErrLoadFailure, detected.String())
}
