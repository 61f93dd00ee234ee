package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zer0thgear/zer0-novel-utillities/internal/build"
)

type SystemHandlers struct{}

func NewSystemHandlers() *SystemHandlers {
	return &SystemHandlers{}
}

type HealthResponse struct {
	Status string     `json:"status"`
	Build  build.Info `json:"build"`
}

func (handlers *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Build:  build.GetBuildInfo(),
	})
}
