package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/dto"
	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// SelectionConfig lists the selector values offered to the dashboard.
type SelectionConfig struct {
	PromptVariants []string
	InputModes     []string
	Versions       []string
	Steps          []int
	LegacyFiles    []string
}

// FileCatalog lists results files that have already been stored.
type FileCatalog interface {
	ListFiles(ctx context.Context) ([]models.ResultsFile, error)
}

// SelectionService turns selector query values into selection keys.
type SelectionService interface {
	Options(ctx context.Context) dto.SelectionOptions
	Resolve(query dto.SelectionQuery) (models.SelectionKey, error)
}

type selectionService struct {
	config  SelectionConfig
	legacy  map[string]struct{}
	catalog FileCatalog
	logger  zerolog.Logger
}

// NewSelectionService constructs the selection service. catalog is optional.
func NewSelectionService(config SelectionConfig, catalog FileCatalog, logger zerolog.Logger) SelectionService {
	legacy := make(map[string]struct{}, len(config.LegacyFiles))
	for _, name := range config.LegacyFiles {
		legacy[name] = struct{}{}
	}
	return &selectionService{
		config:  config,
		legacy:  legacy,
		catalog: catalog,
		logger:  logger.With().Str("component", "selection_service").Logger(),
	}
}

func (s *selectionService) Options(ctx context.Context) dto.SelectionOptions {
	options := dto.SelectionOptions{
		PromptVariants: append([]string{}, s.config.PromptVariants...),
		InputModes:     append([]string{}, s.config.InputModes...),
		Versions:       append([]string{}, s.config.Versions...),
		Steps:          append([]int{}, s.config.Steps...),
		LegacyFiles:    append([]string{}, s.config.LegacyFiles...),
		StoredFiles:    []dto.StoredFileResponse{},
	}
	if s.catalog == nil {
		return options
	}

	files, err := s.catalog.ListFiles(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list stored results files")
		return options
	}
	for _, file := range files {
		options.StoredFiles = append(options.StoredFiles, dto.StoredFileResponse{
			FileName: file.FileName,
			Rows:     file.Rows,
			LoadedAt: file.LoadedAt,
		})
	}
	return options
}

// Resolve builds a key from the query. Omitted parts fall back to the first
// configured option. Legacy file names are only honoured when configured, and
// the first one is the default when no parameterized selector is configured.
func (s *selectionService) Resolve(query dto.SelectionQuery) (models.SelectionKey, error) {
	file := strings.TrimSpace(query.File)
	if file == "" && s.useLegacyDefault(query) {
		file = s.config.LegacyFiles[0]
	}
	if file != "" {
		if _, ok := s.legacy[file]; !ok {
			return models.SelectionKey{}, fmt.Errorf("%w: legacy file %q is not configured", models.ErrInvalidSelection, file)
		}
		key := models.SelectionKey{LegacyFile: file}
		if err := key.Validate(); err != nil {
			return models.SelectionKey{}, err
		}
		return key, nil
	}

	key := models.SelectionKey{
		PromptVariant: firstNonEmpty(strings.TrimSpace(query.Variant), s.config.PromptVariants),
		InputMode:     firstNonEmpty(strings.ToLower(strings.TrimSpace(query.Mode)), s.config.InputModes),
		Version:       firstNonEmpty(strings.TrimSpace(query.Version), s.config.Versions),
		Step:          query.Step,
	}
	if key.Step == 0 && len(s.config.Steps) > 0 {
		key.Step = s.config.Steps[0]
	}

	if err := key.Validate(); err != nil {
		return models.SelectionKey{}, err
	}
	return key, nil
}

func (s *selectionService) useLegacyDefault(query dto.SelectionQuery) bool {
	if len(s.config.LegacyFiles) == 0 || len(s.config.PromptVariants) > 0 {
		return false
	}
	return strings.TrimSpace(query.Variant) == "" &&
		strings.TrimSpace(query.Mode) == "" &&
		strings.TrimSpace(query.Version) == "" &&
		query.Step == 0
}

func firstNonEmpty(value string, fallback []string) string {
	if value != "" || len(fallback) == 0 {
		return value
	}
	return fallback[0]
}
