package models

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailure indicates the results table could not be retrieved or parsed.
	ErrLoadFailure = errors.New("results table load failed")
	// ErrMissingColumn indicates the results table lacks a required column.
	ErrMissingColumn = errors.New("required column missing")
	// ErrMalformedDrawing indicates a raw stroke payload could not be decoded into a drawing.
	ErrMalformedDrawing = errors.New("malformed drawing")
	// ErrInvalidParameter indicates an out-of-contract argument such as a non-positive size.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidSelection indicates the selection key does not identify a results file.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrRecordNotFound indicates the requested row index does not exist in the table.
	ErrRecordNotFound = errors.New("evaluation record not found")
)

// MissingColumnError names the column the aggregation required.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingColumn.Error(), e.Column)
}

// Unwrap allows errors.Is(err, ErrMissingColumn).
func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
