package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/middleware"
)

const requestBody = `{"input":"a girl","model":"nai-diffusion-4-5-full","action":"generate","parameters":{"seed":1}}`

type upstreamCall struct {
	path          string
	authorization string
	body          string
}

func newUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Pointer[upstreamCall]) {
	t.Helper()

	var last atomic.Pointer[upstreamCall]

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		last.Store(&upstreamCall{
			path:          r.URL.Path,
			authorization: r.Header.Get("Authorization"),
			body:          string(body),
		})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return server, &last
}

func newRouter(baseURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handlers := NewGenerateHandlers(GenerateHandlersParams{
		HttpClient: httpclient.NewHttpClient(),
		Upstream:   UpstreamConfig{BaseURL: baseURL},
	})

	router := gin.New()
	group := router.Group("/api", middleware.WithAPIKey(nil))
	group.POST("/generate", handlers.Generate)
	group.POST("/generate-stream", handlers.GenerateStream)

	return router
}

func post(router http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if key != "" {
		req.Header.Set("x-api-key", key)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestGenerate_ForwardsArchive(t *testing.T) {
	archive := []byte("PK\x03\x04fake-archive")

	upstream, last := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-zip-compressed")
		_, _ = w.Write(archive)
	})

	w := post(newRouter(upstream.URL), "/api/generate", "pst-key", requestBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, archive, w.Body.Bytes())

	call := last.Load()
	require.NotNil(t, call)
	assert.Equal(t, UpstreamGeneratePath, call.path)
	assert.Equal(t, "Bearer pst-key", call.authorization)
	assert.JSONEq(t, requestBody, call.body)
}

func TestGenerate_Rejections(t *testing.T) {
	upstream, last := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router := newRouter(upstream.URL)

	w := post(router, "/api/generate", "", requestBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Missing API key"}`, w.Body.String())

	w = post(router, "/api/generate", "pst-key", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())

	w = post(router, "/api/generate-stream", "pst-key", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Nil(t, last.Load(), "rejected requests never reach the provider")
}

func TestGenerate_UpstreamStatus(t *testing.T) {
	upstream, _ := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"statusCode":402,"message":"Insufficient Anlas"}`))
	})

	router := newRouter(upstream.URL)

	for _, path := range []string{"/api/generate", "/api/generate-stream"} {
		w := post(router, path, "pst-key", requestBody)
		assert.Equal(t, http.StatusPaymentRequired, w.Code, path)
		assert.JSONEq(t, `{"error":"{\"statusCode\":402,\"message\":\"Insufficient Anlas\"}"}`, w.Body.String(), path)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	baseURL := upstream.URL
	upstream.Close()

	router := newRouter(baseURL)

	for _, path := range []string{"/api/generate", "/api/generate-stream"} {
		w := post(router, path, "pst-key", requestBody)
		require.Equal(t, http.StatusBadGateway, w.Code, path)
		assert.Contains(t, w.Body.String(), `"error":"Failed to reach NovelAI: `, path)
	}
}

func TestGenerateStream_Pipe(t *testing.T) {
	transcript := "event: intermediate\ndata: QUJD\n\n" +
		"event: intermediate\ndata: REVG\n\n" +
		"event: final\ndata: R0hJ\n\n"

	upstream, last := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")

		flusher := w.(http.Flusher)
		for _, chunk := range strings.SplitAfter(transcript, "\n\n") {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
		}
	})

	w := post(newRouter(upstream.URL), "/api/generate-stream", "pst-key", requestBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-transform", w.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", w.Header().Get("Connection"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))
	assert.Equal(t, transcript, w.Body.String())
	assert.True(t, w.Flushed)

	call := last.Load()
	require.NotNil(t, call)
	assert.Equal(t, UpstreamStreamPath, call.path)
	assert.Equal(t, "Bearer pst-key", call.authorization)
}

type flushRecorder struct {
	gin.ResponseWriter

	buf     bytes.Buffer
	flushes int
}

func (r *flushRecorder) Write(p []byte) (int, error) { return r.buf.Write(p) }
func (r *flushRecorder) Flush()                      { r.flushes++ }

func TestPipe_FlushesPerChunk(t *testing.T) {
	src := strings.Repeat("x", pipeChunkSize*2+10)
	w := &flushRecorder{}

	written, err := pipe(t.Context(), w, strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, int64(len(src)), written)
	assert.Equal(t, src, w.buf.String())
	assert.Equal(t, 3, w.flushes)
}

func TestUpstreamConfig_URL(t *testing.T) {
	assert.Equal(t, DefaultUpstreamURL+UpstreamGeneratePath, UpstreamConfig{}.url(UpstreamGeneratePath))
	assert.Equal(t, "http://localhost:9/ai/generate-image-stream", UpstreamConfig{BaseURL: "http://localhost:9/"}.url(UpstreamStreamPath))
}
