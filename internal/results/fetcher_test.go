package results

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

func TestHTTPFetcher(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		if r.URL.Path != "/main/baseline_stroke_v9_step200.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strokeCSV))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL+"/main/", time.Second)
	require.Equal(t, "http", fetcher.Source())

	data, err := fetcher.Fetch(context.Background(), "baseline_stroke_v9_step200.csv")
	require.NoError(t, err)
	require.Equal(t, strokeCSV, string(data))
	require.Equal(t, "/main/baseline_stroke_v9_step200.csv", requested)

	_, err = fetcher.Fetch(context.Background(), "missing.csv")
	require.ErrorIs(t, err, models.ErrLoadFailure)
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPFetcher(url, time.Second).Fetch(context.Background(), "file.csv")
	require.ErrorIs(t, err, models.ErrLoadFailure)
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image_v9_step200.csv"), []byte("category,is_correct\ncat,True\n"), 0o600))

	fetcher := NewDirFetcher(dir)
	data, err := fetcher.Fetch(context.Background(), "image_v9_step200.csv")
	require.NoError(t, err)
	require.Contains(t, string(data), "cat,True")

	_, err = fetcher.Fetch(context.Background(), "absent.csv")
	require.ErrorIs(t, err, models.ErrLoadFailure)

	_, err = fetcher.Fetch(context.Background(), "../image_v9_step200.csv")
	require.ErrorIs(t, err, models.ErrInvalidSelection)
}

type countingFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *countingFetcher) Source() string { return "stub" }

func (f *countingFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func TestCachedFetcherUsesRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	next := &countingFetcher{data: []byte(strokeCSV)}
	fetcher := NewCachedFetcher(next, client, time.Minute, zerolog.Nop())

	ctx := context.Background()
	first, err := fetcher.Fetch(ctx, "a.csv")
	require.NoError(t, err)
	second, err := fetcher.Fetch(ctx, "a.csv")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls)
	require.True(t, mini.Exists("results:raw:a.csv"))
	require.Equal(t, "stub", fetcher.Source())

	mini.FastForward(2 * time.Minute)
	_, err = fetcher.Fetch(ctx, "a.csv")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestCachedFetcherWithoutRedis(t *testing.T) {
	next := &countingFetcher{data: []byte("x")}
	fetcher := NewCachedFetcher(next, nil, time.Minute, zerolog.Nop())

	_, err := fetcher.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	_, err = fetcher.Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestCachedFetcherSurvivesRedisOutage(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr(), MaxRetries: -1})
	mini.Close()

	next := &countingFetcher{data: []byte("payload")}
	data, err := NewCachedFetcher(next, client, time.Minute, zerolog.Nop()).Fetch(context.Background(), "a.csv")
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestCachedFetcherInvalidate(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	next := &countingFetcher{data: []byte("v1")}
	fetcher := NewCachedFetcher(next, client, time.Hour, zerolog.Nop())

	ctx := context.Background()
	_, err = fetcher.Fetch(ctx, "a.csv")
	require.NoError(t, err)

	next.data = []byte("v2")
	require.NoError(t, fetcher.Invalidate(ctx, "a.csv"))
	require.False(t, mini.Exists("results:raw:a.csv"))

	data, err := fetcher.Fetch(ctx, "a.csv")
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
	require.Equal(t, 2, next.calls)

	require.NoError(t, NewCachedFetcher(next, nil, time.Hour, zerolog.Nop()).Invalidate(ctx, "a.csv"))
}
