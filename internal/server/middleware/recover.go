package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
)

var errInternal = errors.New("Internal server error")

// Recovery turns a panicking handler into a 500 response and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.Error(c.Request.Context(), "panic recovered",
				log.String("panic", fmt.Sprint(rec)),
				log.String("path", c.Request.URL.Path),
				log.String("stack", string(debug.Stack())))

			if c.Writer.Written() {
				c.Abort()
				return
			}

			AbortWithError(c, http.StatusInternalServerError, errInternal)
		}()

		c.Next()
	}
}
