package models

import (
	"time"

	"gorm.io/datatypes"
)

// Column names of the results CSV.
const (
	ColumnCategory    = "category"
	ColumnPrediction  = "prediction"
	ColumnIsCorrect   = "is_correct"
	ColumnMatchReason = "match_reason"
	ColumnCountryCode = "countrycode"
	ColumnTimestamp   = "timestamp"
	ColumnRawStroke   = "raw_stroke"
)

// EvaluationRecord is one evaluated sample of the results table.
type EvaluationRecord struct {
	Index       int    `json:"index"`
	Category    string `json:"category" validate:"required"`
	Prediction  string `json:"prediction"`
	IsCorrect   bool   `json:"is_correct"`
	MatchReason string `json:"match_reason"`
	CountryCode string `json:"countrycode"`
	Timestamp   string `json:"timestamp"`
	RawStroke   string `json:"raw_stroke,omitempty"`
}

// HasStroke reports whether the record carries a serialized drawing.
func (r EvaluationRecord) HasStroke() bool {
	return r.RawStroke != ""
}

// ResultsFile records a persisted results table and the columns its CSV carried.
type ResultsFile struct {
	ID        uint           `gorm:"primaryKey"`
	FileName  string         `gorm:"size:255;not null;uniqueIndex"`
	Columns   datatypes.JSON `gorm:"not null"`
	Rows      int            `gorm:"not null"`
	LoadedAt  time.Time      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name.
func (ResultsFile) TableName() string {
	return "results_files"
}

// StoredEvaluationRecord is the persisted form of a record.
type StoredEvaluationRecord struct {
	ID          uint   `gorm:"primaryKey"`
	FileName    string `gorm:"size:255;not null;uniqueIndex:idx_records_file_row"`
	RowIndex    int    `gorm:"not null;uniqueIndex:idx_records_file_row"`
	Category    string `gorm:"size:255;not null;index"`
	Prediction  string `gorm:"size:255"`
	IsCorrect   bool   `gorm:"not null"`
	MatchReason string `gorm:"type:text"`
	CountryCode string `gorm:"type:text"`
	Timestamp   string `gorm:"size:64"`
	RawStroke   string `gorm:"type:text"`
}

// TableName pins the table name.
func (StoredEvaluationRecord) TableName() string {
	return "evaluation_records"
}
