package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zer0thgear/zer0-novel-utillities/internal/contexts"
)

// WithAPIKey requires a provider key on the request and stores it in the context.
// The key is forwarded, never validated here.
func WithAPIKey(config *APIKeyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey, err := ExtractAPIKeyFromRequest(c.Request, config)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		ctx := contexts.WithAPIKey(c.Request.Context(), apiKey)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
