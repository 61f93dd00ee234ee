package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/zer0thgear/zer0-novel-utillities/internal/server/api"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/middleware"
)

type Handlers struct {
	fx.In

	Generate *api.GenerateHandlers
	System   *api.SystemHandlers
}

func SetupRoutes(server *Server, handlers Handlers) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	// Setup CORS middleware at server level if enabled
	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group("", middleware.WithTimeout(server.Config.RequestTimeout))
	{
		publicGroup.GET("/health", handlers.System.Health)
	}

	apiKeyConfig := &server.Config.APIKey
	if len(apiKeyConfig.Headers) == 0 {
		apiKeyConfig = nil
	}

	apiGroup := server.Group("/api",
		middleware.WithTimeout(server.Config.GenerationTimeout),
		middleware.WithAPIKey(apiKeyConfig),
	)
	{
		apiGroup.POST("/generate", handlers.Generate.Generate)
		apiGroup.POST("/generate-stream", handlers.Generate.GenerateStream)
	}
}
