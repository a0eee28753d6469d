package analytics

import (
	"fmt"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// IncorrectRows returns the rows with is_correct == false in table order.
func IncorrectRows(table *models.ResultsTable) ([]models.EvaluationRecord, error) {
	if err := table.Require(models.ColumnIsCorrect); err != nil {
		return nil, err
	}

	rows := make([]models.EvaluationRecord, 0)
	for _, record := range table.Records {
		if !record.IsCorrect {
			rows = append(rows, record)
		}
	}
	return rows, nil
}

// Field is one labelled value of the detail breakdown.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IncorrectSummary is the displayable projection of an incorrect prediction.
type IncorrectSummary struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// DescribeIncorrect projects a record into a list label and a field-by-field breakdown.
func DescribeIncorrect(record models.EvaluationRecord) IncorrectSummary {
	return IncorrectSummary{
		Index: record.Index,
		Label: fmt.Sprintf("%s (Predicted: %s)", record.Category, record.Prediction),
		Fields: []Field{
			{Name: "Category", Value: record.Category},
			{Name: "Prediction", Value: record.Prediction},
			{Name: "Match Reason", Value: record.MatchReason},
			{Name: "Country", Value: record.CountryCode},
			{Name: "Timestamp", Value: record.Timestamp},
		},
	}
}
