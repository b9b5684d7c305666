package proxy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/builder/internal/proxy"
)

func TestStaticSupplier_RoundRobin(t *testing.T) {
	t.Parallel()

	s := proxy.NewStaticSupplier([]string{"http://a:1", "http://b:2"})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "http://a:1", s.Get())
	assert.Equal(t, "http://b:2", s.Get())
	assert.Equal(t, "http://a:1", s.Get())

	assert.Equal(t, "", proxy.NewStaticSupplier(nil).Get())
}

func TestNewProxySupplier_FiltersDeadProxies(t *testing.T) {
	t.Parallel()

	// A plain HTTP server doubles as a forward proxy for http:// targets.
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(live.Close)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	s, err := proxy.NewProxySupplier(context.Background(), []string{broken.URL, live.URL}, "http://example.invalid/robots.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, live.URL, s.Get())
}

func TestNewProxySupplier_Empty(t *testing.T) {
	t.Parallel()

	s, err := proxy.NewProxySupplier(context.Background(), nil, "http://example.invalid")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
