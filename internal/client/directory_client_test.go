package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/builder/internal/client"
	"taxonomy/builder/internal/config"
	"taxonomy/builder/internal/metrics"
	"taxonomy/builder/internal/proxy"
	"taxonomy/builder/internal/state"
)

func sourceConfig() config.SourceConfig {
	return config.SourceConfig{UserAgent: "TaxonomyTestBot/1.0", Timeout: 5 * time.Second}
}

func fetchConfig() config.FetchConfig {
	return config.FetchConfig{
		RateLimitRPS:          1000,
		MaxRetries:            2,
		BackoffBase:           time.Millisecond,
		BackoffMax:            5 * time.Millisecond,
		CircuitBreakerMinutes: 1,
	}
}

func newClient(t *testing.T, fetch config.FetchConfig, opts ...client.Option) *client.DirectoryClient {
	t.Helper()
	c := client.NewDirectoryClient(sourceConfig(), fetch, opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFixtureFetcher(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o600))

	html, err := client.FixtureFetcher{Path: path}.Fetch(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", html)

	_, err = client.FixtureFetcher{Path: filepath.Join(t.TempDir(), "missing.html")}.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestDirectoryClient_Success(t *testing.T) {
	t.Parallel()

	var gotAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.UserAgent())
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	t.Cleanup(srv.Close)

	m := metrics.New()
	c := newClient(t, fetchConfig(), client.WithMetrics(m))

	html, err := c.Fetch(context.Background(), srv.URL+"/categories")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
	assert.Equal(t, "TaxonomyTestBot/1.0", gotAgent.Load())
	assert.Equal(t, 1.0, m.Snapshot().Fetches[metrics.FetchOK])
}

func TestDirectoryClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html>third time</html>"))
	}))
	t.Cleanup(srv.Close)

	m := metrics.New()
	c := newClient(t, fetchConfig(), client.WithMetrics(m))

	html, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>third time</html>", html)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 2.0, m.Snapshot().Fetches[metrics.FetchRetry])
}

func TestDirectoryClient_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, fetchConfig()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), hits.Load())
}

func TestDirectoryClient_TooManyRequestsOpensCircuit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, fetchConfig())

	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())

	_, err = c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrCircuitOpen))
	assert.Equal(t, int32(3), hits.Load(), "open circuit must not reach the server")
}

func TestDirectoryClient_QuotaExceededWithoutProxies(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>Quota Exceeded</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, fetchConfig()).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, client.ErrCircuitOpen)
}

func TestDirectoryClient_QuotaExceededSwitchesProxy(t *testing.T) {
	t.Parallel()

	var exhaustedHits, freshHits atomic.Int32
	exhausted := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		exhaustedHits.Add(1)
		_, _ = w.Write([]byte("<html>Quota Exceeded</html>"))
	}))
	t.Cleanup(exhausted.Close)
	fresh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		freshHits.Add(1)
		_, _ = w.Write([]byte("<html>categories</html>"))
	}))
	t.Cleanup(fresh.Close)

	// The supplier hands out the exhausted proxy first, then alternates.
	supplier := proxy.NewStaticSupplier([]string{exhausted.URL, fresh.URL})
	c := newClient(t, fetchConfig(), client.WithProxySupplier(supplier))

	html, err := c.Fetch(context.Background(), "http://directory.test/categories")
	require.NoError(t, err)
	assert.Equal(t, "<html>categories</html>", html)
	assert.Equal(t, int32(1), exhaustedHits.Load())
	assert.Equal(t, int32(1), freshHits.Load())

	// Later fetches stay on the switched proxy, and concurrent switching
	// never mutates a client another request is using.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Fetch(context.Background(), "http://directory.test/categories")
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, freshHits.Load(), int32(2))
}

func TestDirectoryClient_RespectsRobots(t *testing.T) {
	t.Parallel()

	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pageHits.Add(1)
		_, _ = w.Write([]byte("<html>public</html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	fetch := fetchConfig()
	fetch.RespectRobots = true
	c := newClient(t, fetch)

	_, err := c.Fetch(context.Background(), srv.URL+"/private/list")
	assert.ErrorIs(t, err, client.ErrDisallowed)
	assert.Equal(t, int32(0), pageHits.Load())

	html, err := c.Fetch(context.Background(), srv.URL+"/categories")
	require.NoError(t, err)
	assert.Equal(t, "<html>public</html>", html)
}

func TestDirectoryClient_RejectsNonHTTP(t *testing.T) {
	t.Parallel()

	_, err := newClient(t, fetchConfig()).Fetch(context.Background(), "mailto:someone@clutch.co")
	assert.ErrorIs(t, err, client.ErrDisallowed)
}

func TestDirectoryClient_ConditionalGet(t *testing.T) {
	t.Parallel()

	const etag = `"v1"`
	var notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		_, _ = w.Write([]byte("<html>fresh</html>"))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	fetch := fetchConfig()
	fetch.UseCache = true
	m := metrics.New()
	c := newClient(t, fetch, client.WithPageCache(state.NewRedisStateManager(rdb, 0)), client.WithMetrics(m))

	first, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "<html>fresh</html>", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), notModified.Load())
	assert.Equal(t, 1.0, m.Snapshot().Fetches[metrics.FetchNotModified])
}
