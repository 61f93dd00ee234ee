package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/zer0thgear/zer0-novel-utillities/internal/build"
	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/api"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/middleware"
)

func newTestServer(t *testing.T, cfg Config, upstream string) *Server {
	t.Helper()

	previous := log.GetGlobalLogger()
	t.Cleanup(func() { log.SetGlobalLogger(previous) })

	var srv *Server

	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Supply(log.Config{Level: "error"}),
		fx.Supply(api.UpstreamConfig{BaseURL: upstream}),
		Module,
		fx.Populate(&srv),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, Config{Name: "test", RequestTimeout: time.Minute}, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, build.Version, gjson.Get(w.Body.String(), "build.version").String())
	assert.True(t, strings.HasPrefix(w.Header().Get(middleware.DefaultTraceHeader), "ns-"))
	assert.True(t, strings.HasPrefix(w.Header().Get(middleware.DefaultRequestHeader), "req-"))
}

func TestServer_TraceHeaderIsEchoed(t *testing.T) {
	srv := newTestServer(t, Config{}, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.DefaultTraceHeader, "ns-fixed")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "ns-fixed", w.Header().Get(middleware.DefaultTraceHeader))
}

func TestServer_GenerateRoute(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pst-key", r.Header.Get("Authorization"))
		assert.Equal(t, api.UpstreamGeneratePath, r.URL.Path)
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	t.Cleanup(upstream.Close)

	srv := newTestServer(t, Config{GenerationTimeout: time.Minute}, upstream.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"input":"a"}`))
	req.Header.Set("X-Api-Key", "pst-key")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_CustomAPIKeyHeader(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pst-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	t.Cleanup(upstream.Close)

	cfg := Config{APIKey: middleware.APIKeyConfig{
		Headers:         []string{"Authorization"},
		AllowedPrefixes: []string{"Bearer "},
	}}
	srv := newTestServer(t, cfg, upstream.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer pst-key")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CORS(t *testing.T) {
	cfg := Config{CORS: CORS{
		Enabled:        true,
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Api-Key"},
		MaxAge:         time.Hour,
	}}
	srv := newTestServer(t, cfg, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Api-Key")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
