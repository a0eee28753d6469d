package models

import "time"

// ResultsTable is the parsed results file for one selection. It is read-only after load.
type ResultsTable struct {
	Key      SelectionKey
	FileName string
	Columns  []string
	Records  []EvaluationRecord
	LoadedAt time.Time
}

// HasColumn reports whether the source file carried the named column.
func (t *ResultsTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// Require fails with a MissingColumnError for the first absent column.
func (t *ResultsTable) Require(columns ...string) error {
	for _, column := range columns {
		if !t.HasColumn(column) {
			return &MissingColumnError{Column: column}
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *ResultsTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Record returns the row at index.
func (t *ResultsTable) Record(index int) (EvaluationRecord, error) {
	if t == nil || index < 0 || index >= len(t.Records) {
		return EvaluationRecord{}, ErrRecordNotFound
	}
	return t.Records[index], nil
}
