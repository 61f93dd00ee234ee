package dependencies

import (
	"context"

	"go.uber.org/fx"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/api"
)

// NewUpstreamClient returns the client used to reach the image provider.
func NewUpstreamClient(cfg api.UpstreamConfig) *httpclient.HttpClient {
	if cfg.Proxy != nil {
		log.Info(context.Background(), "using upstream proxy", log.String("type", string(cfg.Proxy.Type)))
	}

	return httpclient.NewHttpClientWithProxy(cfg.Proxy)
}

var Module = fx.Module("dependencies",
	fx.Provide(log.New),
	fx.Provide(NewUpstreamClient),
	fx.Invoke(func(lc fx.Lifecycle, logger *log.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				// Sync on stderr reports an error on some platforms.
				_ = logger.Sync()
				return nil
			},
		})
	}),
)
