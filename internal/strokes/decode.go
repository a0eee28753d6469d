package strokes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// ErrNoDrawing indicates the record carries no stroke payload. Callers treat it as
// "rendering unavailable" rather than a failure.
var ErrNoDrawing = errors.New("no stroke data")

// drawingSchema describes raw_stroke: an array of [xs, ys] pairs. A third array of
// per-point timings is tolerated and ignored.
const drawingSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {
		"type": "array",
		"minItems": 2,
		"maxItems": 3,
		"items": {
			"type": "array",
			"items": {"type": "number"}
		}
	}
}`

var compiledDrawingSchema = jsonschema.MustCompileString("raw_stroke.schema.json", drawingSchema)

// Decode parses a raw_stroke payload into a Drawing.
func Decode(raw string) (models.Drawing, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Drawing{}, ErrNoDrawing
	}

	var document interface{}
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return models.Drawing{}, fmt.Errorf("%w: %v", models.ErrMalformedDrawing, err)
	}
	if err := compiledDrawingSchema.Validate(document); err != nil {
		return models.Drawing{}, fmt.Errorf("%w: %v", models.ErrMalformedDrawing, err)
	}

	var wire [][][]float64
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return models.Drawing{}, fmt.Errorf("%w: %v", models.ErrMalformedDrawing, err)
	}

	drawing := models.Drawing{Strokes: make([]models.Stroke, 0, len(wire))}
	for _, pair := range wire {
		drawing.Strokes = append(drawing.Strokes, models.Stroke{X: pair[0], Y: pair[1]})
	}

	if err := Validate(drawing); err != nil {
		return models.Drawing{}, err
	}
	return drawing, nil
}

// Validate checks that every stroke has matching coordinate counts.
func Validate(drawing models.Drawing) error {
	for i, stroke := range drawing.Strokes {
		if stroke.Points() < 0 {
			return fmt.Errorf("%w: stroke %d has %d x and %d y coordinates", models.ErrMalformedDrawing, i, len(stroke.X), len(stroke.Y))
		}
	}
	return nil
}
