package results

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sketch-eval-api/internal/models"
	"github.com/noah-isme/sketch-eval-api/internal/observability"
)

// Loader resolves a selection key to its results table.
type Loader interface {
	Load(ctx context.Context, key models.SelectionKey) (*models.ResultsTable, error)
}

// TableStore persists parsed tables so later processes skip the fetch.
// Find returns nil, nil when the file has not been stored.
type TableStore interface {
	Find(ctx context.Context, fileName string) (*models.ResultsTable, error)
	Save(ctx context.Context, table *models.ResultsTable) error
}

// Refresher reloads a table from its upstream source, bypassing stored copies.
type Refresher interface {
	Refresh(ctx context.Context, key models.SelectionKey) (*models.ResultsTable, error)
}

// Invalidator is implemented by fetchers that keep their own copy of raw files.
type Invalidator interface {
	Invalidate(ctx context.Context, fileName string) error
}

// EventPublisher announces freshly loaded tables.
type EventPublisher interface {
	PublishLoaded(ctx context.Context, table *models.ResultsTable) error
}

// TableLoader memoizes tables per file name for the lifetime of the process.
// The key space is small and bounded, so entries are only dropped by Forget.
type TableLoader struct {
	fetcher  Fetcher
	parser   *Parser
	store    TableStore
	storeTTL time.Duration
	events   EventPublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	group  singleflight.Group
	mu     sync.RWMutex
	tables map[string]*models.ResultsTable
	// files whose stored copy must not be served until refetched
	stale map[string]struct{}
}

// NewTableLoader wires the loader. store and events are optional.
func NewTableLoader(fetcher Fetcher, parser *Parser, store TableStore, events EventPublisher, logger zerolog.Logger) *TableLoader {
	return &TableLoader{
		fetcher: fetcher,
		parser:  parser,
		store:   store,
		events:  events,
		logger:  logger.With().Str("component", "results_loader").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/sketch-eval-api/internal/results"),
		now:     time.Now,
		tables:  make(map[string]*models.ResultsTable),
		stale:   make(map[string]struct{}),
	}
}

// WithStoreTTL ignores stored tables loaded longer than ttl ago. Zero keeps
// stored tables forever.
func (l *TableLoader) WithStoreTTL(ttl time.Duration) *TableLoader {
	l.storeTTL = ttl
	return l
}

func (l *TableLoader) Load(ctx context.Context, key models.SelectionKey) (*models.ResultsTable, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	fileName := key.FileName()

	l.mu.RLock()
	table, ok := l.tables[fileName]
	l.mu.RUnlock()
	if ok {
		observability.ResultsLoads().WithLabelValues("memory", "hit").Inc()
		return table, nil
	}

	if key.IsLegacy() {
		l.logger.Warn().Str("file", fileName).Msg("legacy results file name requested; use the parameterized selection instead")
	}

	// The shared load outlives any single caller; each caller still stops
	// waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(fileName, func() (interface{}, error) {
		return l.load(loadCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.ResultsTable), nil
	}
}

// Refresh drops every cached copy of the table and loads it from the fetcher.
func (l *TableLoader) Refresh(ctx context.Context, key models.SelectionKey) (*models.ResultsTable, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	l.Forget(key)
	if invalidator, ok := l.fetcher.(Invalidator); ok {
		if err := invalidator.Invalidate(ctx, key.FileName()); err != nil {
			l.logger.Warn().Err(err).Str("file", key.FileName()).Msg("failed to invalidate cached results file")
		}
	}

	l.logger.Info().Str("file", key.FileName()).Msg("results table refresh requested")
	return l.Load(ctx, key)
}

func (l *TableLoader) load(ctx context.Context, key models.SelectionKey) (*models.ResultsTable, error) {
	fileName := key.FileName()
	ctx, span := l.tracer.Start(ctx, "results.load", trace.WithAttributes(attribute.String("results.file", fileName)))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ResultsLoadLatency().Observe(time.Since(start).Seconds())
	}()

	if l.store != nil && !l.isStale(fileName) {
		stored, err := l.store.Find(ctx, fileName)
		if err != nil {
			l.logger.Warn().Err(err).Str("file", fileName).Msg("failed to read stored results table")
			span.RecordError(err)
		} else if stored != nil && l.expired(stored) {
			l.logger.Debug().Str("file", fileName).Time("loaded_at", stored.LoadedAt).Msg("stored results table expired")
		} else if stored != nil {
			stored.Key = key
			observability.ResultsLoads().WithLabelValues("store", "hit").Inc()
			span.SetAttributes(attribute.String("results.source", "store"))
			l.remember(fileName, stored)
			return stored, nil
		}
	}

	source := l.fetcher.Source()
	span.SetAttributes(attribute.String("results.source", source))

	data, err := l.fetcher.Fetch(ctx, fileName)
	if err != nil {
		observability.ResultsLoads().WithLabelValues(source, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		l.logger.Error().Err(err).Str("file", fileName).Msg("failed to fetch results table")
		return nil, err
	}

	table, err := l.parser.Parse(key, data)
	if err != nil {
		observability.ResultsLoads().WithLabelValues(source, "invalid").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		l.logger.Error().Err(err).Str("file", fileName).Msg("failed to parse results table")
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	table.LoadedAt = l.now().UTC()

	span.SetAttributes(attribute.Int("results.rows", table.Len()))
	observability.ResultsLoads().WithLabelValues(source, "loaded").Inc()
	l.logger.Info().Str("file", fileName).Int("rows", table.Len()).Strs("columns", table.Columns).Msg("results table loaded")

	if l.store != nil {
		if err := l.store.Save(ctx, table); err != nil {
			l.logger.Warn().Err(err).Str("file", fileName).Msg("failed to persist results table")
			span.RecordError(err)
		}
	}

	if l.events != nil {
		if err := l.events.PublishLoaded(ctx, table); err != nil {
			l.logger.Warn().Err(err).Str("file", fileName).Msg("failed to publish results loaded event")
		}
	}

	l.remember(fileName, table)
	return table, nil
}

func (l *TableLoader) remember(fileName string, table *models.ResultsTable) {
	l.mu.Lock()
	l.tables[fileName] = table
	delete(l.stale, fileName)
	l.mu.Unlock()
}

func (l *TableLoader) isStale(fileName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.stale[fileName]
	return ok
}

func (l *TableLoader) expired(table *models.ResultsTable) bool {
	return l.storeTTL > 0 && l.now().Sub(table.LoadedAt) > l.storeTTL
}

// Forget drops a memoized table. The next Load skips the store and refetches.
func (l *TableLoader) Forget(key models.SelectionKey) {
	fileName := key.FileName()
	l.mu.Lock()
	delete(l.tables, fileName)
	l.stale[fileName] = struct{}{}
	l.mu.Unlock()
	l.group.Forget(fileName)
}
