package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/builder/internal/metrics"
	"taxonomy/builder/internal/server"
)

type probeBody struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Timestamp string `json:"ts"`
	Checks    []struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"checks"`
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, probeBody) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body probeBody
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := server.New(":0", nil)
	rec, body := get(t, srv.Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "taxonomy_builder", body.Component)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Timestamp)
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		srv := server.New(":0", nil, server.OutputDirWritable(filepath.Join(t.TempDir(), "out")))
		rec, body := get(t, srv.Handler(), "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body.Status)
		require.Len(t, body.Checks, 1)
		assert.Equal(t, "output_dir", body.Checks[0].Name)
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()

		down := server.Check{Name: "redis", Run: func(context.Context) error { return errors.New("connection refused") }}
		srv := server.New(":0", nil, down)
		rec, body := get(t, srv.Handler(), "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "fail", body.Status)
		require.Len(t, body.Checks, 1)
		assert.Equal(t, "connection refused", body.Checks[0].Error)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ItemsNormalized(4)

	srv := server.New(":0", m.Registry())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taxonomy_items_normalized_total 4")
}
