package simulator

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0thgear/zer0-novel-utillities/internal/generation"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/api"
	"github.com/zer0thgear/zer0-novel-utillities/internal/session"
)

// proxyToSimulator starts the proxy in front of a simulator and returns the proxy URL.
func proxyToSimulator(t *testing.T, cfg Config) string {
	t.Helper()

	upstream := httptest.NewServer(New(cfg))
	t.Cleanup(upstream.Close)

	srv := server.New(server.Config{Name: "e2e"})
	server.SetupRoutes(srv, server.Handlers{
		Generate: api.NewGenerateHandlers(api.GenerateHandlersParams{
			HttpClient: httpclient.NewHttpClient(),
			Upstream:   api.UpstreamConfig{BaseURL: upstream.URL},
		}),
		System: api.NewSystemHandlers(),
	})

	proxy := httptest.NewServer(srv)
	t.Cleanup(proxy.Close)

	return proxy.URL
}

func newGenerator(t *testing.T, proxyURL, apiKey string) (*generation.Generator, *session.Store) {
	t.Helper()

	store := session.NewStore(session.NewResources())
	t.Cleanup(func() { _ = store.Close() })

	store.SetAPIKey(apiKey)

	gen := generation.New(generation.Options{
		Transport: generation.NewProxyTransport(httpclient.NewHttpClient(), proxyURL),
		Session:   store,
	})

	return gen, store
}

func prompts(texts ...string) objects.FormSettings {
	s := objects.DefaultFormSettings()
	s.BasePrompts = nil

	for i, text := range texts {
		s.BasePrompts = append(s.BasePrompts, objects.BasePrompt{ID: text, Label: text, Text: text, Selected: i == 0 || len(texts) > 1})
	}

	if len(texts) > 1 {
		s.PromptMode = objects.PromptModeBatch
	}

	return s
}

func TestEndToEnd_Buffered(t *testing.T) {
	gen, store := newGenerator(t, proxyToSimulator(t, Config{}), "pst-e2e")

	s := prompts("a girl", "a forest")
	s.Seed = 100

	result, err := gen.Submit(t.Context(), s)
	require.NoError(t, err)
	require.Len(t, result.Images, 2)
	assert.Equal(t, session.BatchProgress{Current: 2, Total: 2}, result.Progress)

	st := store.Snapshot()
	require.Len(t, st.Images, 2)
	assert.Equal(t, "a forest", st.Images[0].Prompt)
	assert.Equal(t, int64(100), st.Images[0].Seed)
	assert.Equal(t, st.Images[0].ID, st.FocusedID)
}

func TestEndToEnd_Streaming(t *testing.T) {
	gen, store := newGenerator(t, proxyToSimulator(t, Config{Steps: 2}), "pst-e2e")

	previews := 0
	store.Subscribe(func(st session.State) {
		if st.Preview != "" {
			previews++
		}
	})

	s := prompts("a girl")
	s.StreamingMode = true

	result, err := gen.Submit(t.Context(), s)
	require.NoError(t, err)
	require.Len(t, result.Images, 1)

	st := store.Snapshot()
	assert.Empty(t, st.Preview)
	assert.Positive(t, previews)
	assert.Equal(t, generation.StateSucceeded, gen.State())
}

func TestEndToEnd_InvalidKey(t *testing.T) {
	gen, store := newGenerator(t, proxyToSimulator(t, Config{APIKey: "pst-right"}), "pst-wrong")

	_, err := gen.Submit(t.Context(), prompts("a girl"))
	require.ErrorIs(t, err, generation.ErrAuth)
	assert.Equal(t, "Invalid API key.", store.Snapshot().LastError)
}

func TestEndToEnd_Enhance(t *testing.T) {
	gen, store := newGenerator(t, proxyToSimulator(t, Config{}), "pst-e2e")

	s := prompts("a girl")

	first, err := gen.Submit(t.Context(), s)
	require.NoError(t, err)

	result, err := gen.Enhance(t.Context(), s, first.Images[0].ID, 1, true)
	require.NoError(t, err)
	require.Len(t, result.Images, 1)

	enhanced := result.Images[0]
	assert.Equal(t, first.Images[0].ID, enhanced.SourceImageID)
	assert.Equal(t, 1280, enhanced.Parameters.Width)
	assert.Len(t, store.Snapshot().Images, 2)
}
