package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type stubLoader struct {
	table *models.ResultsTable
	err   error
	calls int
}

func (s *stubLoader) Load(_ context.Context, key models.SelectionKey) (*models.ResultsTable, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.table, nil
}

var testKey = models.SelectionKey{PromptVariant: "baseline", InputMode: models.InputModeStroke, Version: "v9", Step: 200}

const diagonalStroke = "[[[0,10,20],[0,10,20]]]"

func fixtureTable() *models.ResultsTable {
	return &models.ResultsTable{
		Key:      testKey,
		FileName: testKey.FileName(),
		Columns: []string{
			models.ColumnCategory, models.ColumnPrediction, models.ColumnIsCorrect,
			models.ColumnMatchReason, models.ColumnCountryCode, models.ColumnTimestamp, models.ColumnRawStroke,
		},
		LoadedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Records: []models.EvaluationRecord{
			{Index: 0, Category: "cat", Prediction: "cat", IsCorrect: true, MatchReason: "exact", CountryCode: "US", RawStroke: diagonalStroke},
			{Index: 1, Category: "cat", Prediction: "<b>dog</b>", IsCorrect: false, MatchReason: "looks & feels canine", CountryCode: "DE", RawStroke: diagonalStroke},
			{Index: 2, Category: "dog", Prediction: "dog", IsCorrect: true, CountryCode: "FR"},
			{Index: 3, Category: "owl", Prediction: "bird", IsCorrect: false, CountryCode: "JP"},
			{Index: 4, Category: "owl", Prediction: "cat", IsCorrect: false, RawStroke: "[[[0,1,2],[0,1]]]"},
		},
	}
}
