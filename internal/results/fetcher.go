package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

// maxResultsBytes bounds how much of a results file is read into memory.
const maxResultsBytes = 64 << 20

// Fetcher retrieves the raw bytes of a results file by name.
type Fetcher interface {
	Fetch(ctx context.Context, fileName string) ([]byte, error)
	Source() string
}

// HTTPFetcher downloads results files relative to a base URL.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher builds a fetcher for files served under baseURL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Source() string { return "http" }

func (f *HTTPFetcher) Fetch(ctx context.Context, fileName string) ([]byte, error) {
	target := f.baseURL + "/" + url.PathEscape(fileName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrLoadFailure, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", models.ErrLoadFailure, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: GET %s returned %d", models.ErrLoadFailure, target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultsBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrLoadFailure, target, err)
	}
	if len(body) > maxResultsBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", models.ErrLoadFailure, fileName, maxResultsBytes)
	}
	return body, nil
}

// DirFetcher reads results files from a local directory.
type DirFetcher struct {
	dir string
}

// NewDirFetcher builds a fetcher rooted at dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

func (f *DirFetcher) Source() string { return "dir" }

func (f *DirFetcher) Fetch(ctx context.Context, fileName string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fileName == "" || filepath.Base(fileName) != fileName {
		return nil, fmt.Errorf("%w: file name %q", models.ErrInvalidSelection, fileName)
	}

	data, err := os.ReadFile(filepath.Join(f.dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLoadFailure, err)
	}
	if len(data) > maxResultsBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", models.ErrLoadFailure, fileName, maxResultsBytes)
	}
	return data, nil
}

// CachedFetcher keeps raw results files in Redis in front of another fetcher.
type CachedFetcher struct {
	next   Fetcher
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedFetcher wraps next with a Redis cache. A nil client disables caching.
func NewCachedFetcher(next Fetcher, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "results_cache").Logger(),
	}
}

func (f *CachedFetcher) Source() string { return f.next.Source() }

func (f *CachedFetcher) Fetch(ctx context.Context, fileName string) ([]byte, error) {
	cacheKey := rawCacheKey(fileName)

	if f.cache != nil {
		cached, err := f.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			f.logger.Debug().Str("file", fileName).Msg("results cache hit")
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			f.logger.Warn().Err(err).Msg("failed to read results cache")
		}
	}

	data, err := f.next.Fetch(ctx, fileName)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, cacheKey, data, f.ttl).Err(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to store results cache")
		}
	}

	return data, nil
}

// Invalidate removes the cached copy of fileName.
func (f *CachedFetcher) Invalidate(ctx context.Context, fileName string) error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Del(ctx, rawCacheKey(fileName)).Err()
}

func rawCacheKey(fileName string) string {
	return "results:raw:" + fileName
}
