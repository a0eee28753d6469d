package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// textSanitizer strips markup from model-generated free text. Entities the
// policy escapes are decoded again since responses are JSON, not HTML.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() textSanitizer {
	return textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s textSanitizer) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func (s textSanitizer) record(record models.EvaluationRecord) models.EvaluationRecord {
	record.Prediction = s.clean(record.Prediction)
	record.MatchReason = s.clean(record.MatchReason)
	return record
}
