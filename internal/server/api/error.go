package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// JSONError returns a JSON error response and adds the error to gin context for access logging.
func JSONError(c *gin.Context, status int, message string) {
	_ = c.Error(errors.New(message))
	c.JSON(status, objects.ErrorResponse{Error: message})
}
