package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sketch-eval-api/internal/dto"
	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/observability"
	"github.com/noah-isme/sketch-eval-api/internal/results"
	"github.com/noah-isme/sketch-eval-api/internal/strokes"
)

var (
	// ErrRenderUnavailable indicates the record has no drawing to render.
	ErrRenderUnavailable = errors.New("rendering unavailable")
	// ErrPublishingDisabled indicates no drawing publisher is configured.
	ErrPublishingDisabled = errors.New("drawing publishing is disabled")
)

// DrawingPublisher stores a rendered drawing and returns its public URL.
type DrawingPublisher interface {
	Publish(ctx context.Context, name string, image []byte) (string, error)
}

// RenderDefaults are used when a request leaves size or width unset.
type RenderDefaults struct {
	ImageSize int
	LineWidth int
}

// RenderService rasterizes stored drawings.
type RenderService interface {
	Render(ctx context.Context, key models.SelectionKey, index, size, width int) ([]byte, error)
	Publish(ctx context.Context, key models.SelectionKey, index, size, width int) (dto.PublishResponse, error)
}

type renderService struct {
	loader    results.Loader
	publisher DrawingPublisher
	defaults  RenderDefaults
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRenderService constructs the render service. publisher may be nil.
func NewRenderService(loader results.Loader, publisher DrawingPublisher, defaults RenderDefaults, logger zerolog.Logger) RenderService {
	if defaults.ImageSize <= 0 {
		defaults.ImageSize = strokes.DefaultImageSize
	}
	if defaults.LineWidth <= 0 {
		defaults.LineWidth = strokes.DefaultLineWidth
	}
	return &renderService{
		loader:    loader,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger.With().Str("component", "render_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sketch-eval-api/internal/service/render"),
	}
}

func (s *renderService) Render(ctx context.Context, key models.SelectionKey, index, size, width int) ([]byte, error) {
	size, width = s.resolve(size, width)

	ctx, span := s.tracer.Start(ctx, "drawing.render", trace.WithAttributes(
		attribute.String("results.file", key.FileName()),
		attribute.Int("results.index", index),
		attribute.Int("render.size", size),
		attribute.Int("render.width", width),
	))
	defer span.End()

	start := time.Now()
	image, err := s.render(ctx, key, index, size, width)
	observability.DrawingRenderLatency().Observe(time.Since(start).Seconds())
	observability.DrawingRenders().WithLabelValues(renderOutcome(err)).Inc()
	if err != nil {
		if !errors.Is(err, ErrRenderUnavailable) {
			recordSpanError(span, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("render.bytes", len(image)))
	return image, nil
}

func (s *renderService) Publish(ctx context.Context, key models.SelectionKey, index, size, width int) (dto.PublishResponse, error) {
	if s.publisher == nil {
		observability.DrawingPublished().WithLabelValues("disabled").Inc()
		return dto.PublishResponse{}, ErrPublishingDisabled
	}
	size, width = s.resolve(size, width)

	image, err := s.Render(ctx, key, index, size, width)
	if err != nil {
		return dto.PublishResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "drawing.publish", trace.WithAttributes(
		attribute.String("results.file", key.FileName()),
		attribute.Int("results.index", index),
	))
	defer span.End()

	name := fmt.Sprintf("%s_%d_%dx%d", strings.TrimSuffix(key.FileName(), ".csv"), index, size, width)
	url, err := s.publisher.Publish(ctx, name, image)
	if err != nil {
		observability.DrawingPublished().WithLabelValues("error").Inc()
		recordSpanError(span, err)
		s.logger.Error().Err(err).Str("file", key.FileName()).Int("index", index).Msg("failed to publish drawing")
		return dto.PublishResponse{}, err
	}

	observability.DrawingPublished().WithLabelValues("success").Inc()
	s.logger.Info().Str("file", key.FileName()).Int("index", index).Str("url", url).Msg("drawing published")

	return dto.PublishResponse{File: key.FileName(), Index: index, URL: url}, nil
}

func (s *renderService) render(ctx context.Context, key models.SelectionKey, index, size, width int) ([]byte, error) {
	table, err := s.loader.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	record, err := table.Record(index)
	if err != nil {
		return nil, err
	}

	drawing, err := strokes.Decode(record.RawStroke)
	if errors.Is(err, strokes.ErrNoDrawing) {
		return nil, fmt.Errorf("%w: record %d has no drawing", ErrRenderUnavailable, index)
	}
	if err != nil {
		return nil, err
	}

	img, err := strokes.Render(drawing, size, width)
	if err != nil {
		return nil, err
	}
	return strokes.EncodePNG(img)
}

func (s *renderService) resolve(size, width int) (int, int) {
	if size <= 0 {
		size = s.defaults.ImageSize
	}
	if width <= 0 {
		width = s.defaults.LineWidth
	}
	return size, width
}

func renderOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRenderUnavailable):
		return "unavailable"
	case errors.Is(err, models.ErrMalformedDrawing):
		return "malformed"
	default:
		return "error"
	}
}
