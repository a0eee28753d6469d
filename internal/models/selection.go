package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Supported input modes of an evaluation run.
const (
	InputModeImage  = "image"
	InputModeStroke = "stroke"
)

var selectionPart = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// SelectionKey identifies which results table to load.
type SelectionKey struct {
	PromptVariant string `json:"prompt_variant"`
	InputMode     string `json:"input_mode"`
	Version       string `json:"version"`
	Step          int    `json:"step"`
	// LegacyFile is a deprecated fixed file name used instead of the parameterized form.
	LegacyFile string `json:"legacy_file,omitempty"`
}

// Validate checks that the key can be joined into an unambiguous file name.
func (k SelectionKey) Validate() error {
	if k.LegacyFile != "" {
		if strings.ContainsAny(k.LegacyFile, `/\`) || strings.Contains(k.LegacyFile, "..") || !strings.HasSuffix(k.LegacyFile, ".csv") {
			return fmt.Errorf("%w: legacy file %q", ErrInvalidSelection, k.LegacyFile)
		}
		return nil
	}

	if !selectionPart.MatchString(k.PromptVariant) {
		return fmt.Errorf("%w: prompt variant %q", ErrInvalidSelection, k.PromptVariant)
	}
	if !selectionPart.MatchString(k.Version) {
		return fmt.Errorf("%w: version %q", ErrInvalidSelection, k.Version)
	}
	if k.InputMode != InputModeImage && k.InputMode != InputModeStroke {
		return fmt.Errorf("%w: input mode %q", ErrInvalidSelection, k.InputMode)
	}
	if k.Step <= 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidSelection)
	}
	return nil
}

// FileName joins the key as {prompt_variant}_{input_mode}_{version}_step{step}.csv.
func (k SelectionKey) FileName() string {
	if k.LegacyFile != "" {
		return k.LegacyFile
	}
	return fmt.Sprintf("%s_%s_%s_step%d.csv", k.PromptVariant, k.InputMode, k.Version, k.Step)
}

// IsLegacy reports whether the key uses a deprecated fixed file name.
func (k SelectionKey) IsLegacy() bool {
	return k.LegacyFile != ""
}

func (k SelectionKey) String() string {
	return k.FileName()
}
