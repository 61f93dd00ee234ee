package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/zer0thgear/zer0-novel-utillities/internal/tracing"
)

func TestWithLoggingTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(WithLoggingTracing(tracing.Config{}))

	engine.POST("/api/generate", func(c *gin.Context) {
		ctx := c.Request.Context()

		traceID, ok := tracing.GetTraceID(ctx)
		assert.True(t, ok)
		assert.True(t, strings.HasPrefix(traceID, "ns-"))

		op, ok := tracing.GetOperationName(ctx)
		assert.True(t, ok)
		assert.Equal(t, "POST /api/generate", op)

		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/generate", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get(DefaultRequestHeader), "req-"))
	assert.True(t, strings.HasPrefix(w.Header().Get(DefaultTraceHeader), "ns-"))
}

func TestWithLoggingTracing_ExistingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(WithLoggingTracing(tracing.Config{TraceHeader: "X-Trace", RequestHeader: "X-Request"}))

	engine.GET("/", func(c *gin.Context) {
		traceID, ok := tracing.GetTraceID(c.Request.Context())
		assert.True(t, ok)
		assert.Equal(t, "ns-existing", traceID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace", "ns-existing")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ns-existing", w.Header().Get("X-Trace"))
	assert.NotEmpty(t, w.Header().Get("X-Request"))
}
