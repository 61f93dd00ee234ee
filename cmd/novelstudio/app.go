package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"

	"github.com/zer0thgear/zer0-novel-utillities/conf"
	"github.com/zer0thgear/zer0-novel-utillities/internal/gallery"
	"github.com/zer0thgear/zer0-novel-utillities/internal/generation"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/session"
	"github.com/zer0thgear/zer0-novel-utillities/internal/settings"
)

// client holds what the client commands share: settings, gallery and the session.
type client struct {
	config conf.Config

	settings *settings.Store
	db       *sql.DB
	gallery  gallery.Repository
	session  *session.Store
}

func openClient(ctx context.Context, config conf.Config) (*client, error) {
	settingsStore, err := settings.Open(ctx, appFs, config.Client.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}

	db, err := gallery.OpenDB(ctx, config.Client.GalleryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery: %w", err)
	}

	repo, err := gallery.NewRepository(&gallery.Config{DB: db})
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}

	return &client{
		config:   config,
		settings: settingsStore,
		db:       db,
		gallery:  repo,
		session:  session.NewStore(session.NewResources()),
	}, nil
}

// loadGallery puts the stored images into the session, newest first.
func (c *client) loadGallery(ctx context.Context) error {
	images, err := c.gallery.List(ctx)
	if err != nil {
		return err
	}

	c.session.Load(images)

	return nil
}

func (c *client) transport() generation.Transport {
	if c.config.Client.Direct {
		return generation.NewDirectTransport(httpclient.NewHttpClientWithProxy(c.config.Upstream.Proxy), c.config.Upstream.BaseURL)
	}

	return generation.NewProxyTransport(httpclient.NewHttpClient(), c.config.Client.ProxyURL)
}

// withTimeout bounds a generation by client.timeout, zero means no limit.
func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, c.config.Client.Timeout)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// generator returns a generator that persists to the gallery and reports to out.
func (c *client) generator(transport generation.Transport, apiKey string, out io.Writer) *generation.Generator {
	if apiKey == "" {
		apiKey = c.config.Client.APIKey
	}

	c.session.SetAPIKey(apiKey)

	gen := generation.New(generation.Options{
		Transport: transport,
		Session:   c.session,
		Persister: c.gallery,
	})

	printer := newProgressPrinter(out)
	printer.watch(c.session)
	gen.AddListener(printer)

	return gen
}

func (c *client) Close() error {
	return multierr.Combine(c.session.Close(), c.db.Close())
}
