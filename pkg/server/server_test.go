package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/moosedocs/pkg/observability"
	"github.com/platinummonkey/moosedocs/pkg/syntax/syntaxtest"
)

func newServer(t *testing.T, rebuild RebuildFunc) (*Server, *observability.Metrics, string) {
	t.Helper()
	siteDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "index.html"), []byte("<h1>Home</h1>"), 0o644))

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	logger, _ := test.NewNullLogger()

	s := New(Options{
		SiteDir:  siteDir,
		Tree:     syntaxtest.Tree(t),
		Registry: registry,
		Metrics:  metrics,
		Rebuild:  rebuild,
	}, logger)
	return s, metrics, siteDir
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Routes(t *testing.T) {
	s, _, _ := newServer(t, nil)
	h := s.Handler()

	tests := []struct {
		target string
		status int
		body   string
	}{
		{target: "/healthz", status: http.StatusOK, body: `"status":"healthy"`},
		{target: "/healthz/ready", status: http.StatusOK},
		{target: "/", status: http.StatusOK, body: "<h1>Home</h1>"},
		{target: "/missing.html", status: http.StatusNotFound},
		{target: "/api/syntax", status: http.StatusBadRequest, body: "path is required"},
		{target: "/api/syntax?path=/Nope", status: http.StatusNotFound, body: "Failed to locate syntax: /Nope"},
		{target: "/api/syntax?path=/Mesh&recursive=perhaps", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, h, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestServer_Syntax(t *testing.T) {
	s, _, _ := newServer(t, nil)

	rec := get(t, s.Handler(), "/api/syntax?path=/Adaptivity/Markers")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SyntaxResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/Adaptivity/Markers", resp.Path)
	assert.Equal(t, "Markers", resp.Name)
	assert.Equal(t, "Refinement markers.", resp.Description)
	assert.Equal(t, []string{
		"/Adaptivity/Markers/*",
		"/Adaptivity/Markers/BoxMarker",
		"/Adaptivity/Markers/ErrorFractionMarker",
	}, resp.Children)
	assert.Nil(t, resp.Node)

	rec = get(t, s.Handler(), "/api/syntax?path=/Adaptivity&recursive=true")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = SyntaxResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Node)
	assert.Len(t, resp.Node.Subblocks, 2)
	assert.Len(t, resp.Parameters, 3)

	s.SetTree(nil)
	rec = get(t, s.Handler(), "/api/syntax?path=/Mesh")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s, metrics, _ := newServer(t, nil)
	h := s.Handler()

	get(t, h, "/")
	get(t, h, "/css/none.css")
	get(t, h, "/api/syntax?path=/Mesh")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/syntax", "200")))

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moosedocs_http_requests_total")
}

func TestServer_PostRebuild(t *testing.T) {
	var calls atomic.Int32
	fail := atomic.Bool{}
	s, _, _ := newServer(t, func(context.Context) error {
		calls.Add(1)
		if fail.Load() {
			return errors.New("bad page")
		}
		return nil
	})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rebuild", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	fail.Store(true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rebuild", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad page")
	assert.Equal(t, int32(2), calls.Load())

	plain, _, _ := newServer(t, nil)
	rec = httptest.NewRecorder()
	plain.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rebuild", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Watch(t *testing.T) {
	rebuilt := make(chan struct{}, 10)
	s, _, siteDir := newServer(t, func(context.Context) error {
		rebuilt <- struct{}{}
		return nil
	})

	content := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(content, "docs"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, content, 20*time.Millisecond) }()

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)

	// Output and hidden files never trigger a rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "index.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(content, ".swap"), []byte("x"), 0o644))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(content, "docs", "page.md"), []byte("# Page\n"), 0o644))
	}

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after content change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestServer_WatchMissingDir(t *testing.T) {
	s, _, _ := newServer(t, nil)
	err := s.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), 0)
	assert.Error(t, err)
}

func TestServer_Ignored(t *testing.T) {
	s, _, siteDir := newServer(t, nil)
	assert.True(t, s.ignored(filepath.Join(siteDir, "a", "index.html")))
	assert.True(t, s.ignored("/content/.#page.md"))
	assert.False(t, s.ignored("/content/page.md"))
}
