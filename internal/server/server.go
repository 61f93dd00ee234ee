package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/api"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/dependencies"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/middleware"
)

func New(config Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())

	return &Server{
		Config: config,
		Engine: engine,
	}
}

type Server struct {
	*gin.Engine

	Config Config
	server *http.Server
	addr   string
}

func (srv *Server) Run() error {
	log.Info(context.Background(), "run server",
		log.String("name", srv.Config.Name),
		log.String("host", srv.Config.Host),
		log.Int("port", srv.Config.Port),
	)
	addr := fmt.Sprintf("%s:%d", srv.Config.Host, srv.Config.Port)
	srv.server = &http.Server{
		Addr:        addr,
		Handler:     srv.Engine,
		ReadTimeout: srv.Config.ReadTimeout,
	}
	srv.addr = addr

	// Event streams stay open for the whole generation, so the write deadline only applies
	// when every route is bounded.
	if srv.Config.GenerationTimeout > 0 {
		srv.server.WriteTimeout = max(srv.Config.RequestTimeout, srv.Config.GenerationTimeout)
	}

	err := srv.server.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}

	return nil
}

func (srv *Server) Shutdown(ctx context.Context) error {
	if srv.server == nil {
		return nil
	}

	return srv.server.Shutdown(ctx)
}

// Module wires the proxy without starting it.
var Module = fx.Module("server",
	dependencies.Module,
	api.Module,
	fx.Provide(New),
	fx.Invoke(func(logger *log.Logger) {
		log.SetGlobalLogger(logger)
	}),
	fx.Invoke(SetupRoutes),
)

func Run(opts ...fx.Option) {
	app := fx.New(
		append([]fx.Option{
			fx.NopLogger,
			Module,
		}, opts...)...,
	)
	app.Run()
}
