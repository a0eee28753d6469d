package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectionKeyFileName(t *testing.T) {
	key := SelectionKey{PromptVariant: "baseline", InputMode: InputModeStroke, Version: "v9", Step: 200}
	require.NoError(t, key.Validate())
	require.Equal(t, "baseline_stroke_v9_step200.csv", key.FileName())
	require.False(t, key.IsLegacy())
}

func TestSelectionKeyLegacyFile(t *testing.T) {
	key := SelectionKey{LegacyFile: "image_v9_step200.csv"}
	require.NoError(t, key.Validate())
	require.Equal(t, "image_v9_step200.csv", key.FileName())
	require.True(t, key.IsLegacy())
}

func TestSelectionKeyValidateRejects(t *testing.T) {
	cases := map[string]SelectionKey{
		"underscore variant": {PromptVariant: "few_shot", InputMode: InputModeImage, Version: "v1", Step: 1},
		"unknown mode":       {PromptVariant: "baseline", InputMode: "audio", Version: "v1", Step: 1},
		"zero step":          {PromptVariant: "baseline", InputMode: InputModeImage, Version: "v1"},
		"empty version":      {PromptVariant: "baseline", InputMode: InputModeImage, Step: 3},
		"legacy traversal":   {LegacyFile: "../secrets.csv"},
		"legacy extension":   {LegacyFile: "image_v9_step200.json"},
	}

	for name, key := range cases {
		t.Run(name, func(t *testing.T) {
			err := key.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidSelection))
		})
	}
}

func TestResultsTableRequire(t *testing.T) {
	table := &ResultsTable{Columns: []string{ColumnCategory, ColumnIsCorrect}}
	require.NoError(t, table.Require(ColumnCategory, ColumnIsCorrect))

	err := table.Require(ColumnCategory, ColumnPrediction)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, ColumnPrediction, missing.Column)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestResultsTableRecordBounds(t *testing.T) {
	table := &ResultsTable{Records: []EvaluationRecord{{Index: 0, Category: "cat"}}}

	record, err := table.Record(0)
	require.NoError(t, err)
	require.Equal(t, "cat", record.Category)

	_, err = table.Record(1)
	require.ErrorIs(t, err, ErrRecordNotFound)
	_, err = table.Record(-1)
	require.ErrorIs(t, err, ErrRecordNotFound)
}
