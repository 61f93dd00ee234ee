package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/zer0thgear/zer0-novel-utillities/internal/build"
	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
)

// Transport sends generation requests.
type Transport interface {
	// Generate returns the zip archive of a buffered generation.
	Generate(ctx context.Context, apiKey string, req novelai.GenerationRequest) ([]byte, error)

	// GenerateStream returns the event stream of a streaming generation.
	GenerateStream(ctx context.Context, apiKey string, req novelai.GenerationRequest) (httpclient.StreamDecoder, error)
}

const (
	ProxyGeneratePath    = "/api/generate"
	ProxyStreamPath      = "/api/generate-stream"
	UpstreamGeneratePath = "/ai/generate-image"
	UpstreamStreamPath   = "/ai/generate-image-stream"

	// APIKeyHeader carries the key from the client to the proxy.
	APIKeyHeader = "x-api-key"
)

// HTTPTransport posts requests to a base URL.
type HTTPTransport struct {
	client       *httpclient.HttpClient
	baseURL      string
	generatePath string
	streamPath   string
	auth         func(apiKey string) *httpclient.AuthConfig
}

// NewProxyTransport talks to the local proxy, which attaches the key upstream.
func NewProxyTransport(client *httpclient.HttpClient, baseURL string) *HTTPTransport {
	return &HTTPTransport{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		generatePath: ProxyGeneratePath,
		streamPath:   ProxyStreamPath,
		auth: func(apiKey string) *httpclient.AuthConfig {
			return &httpclient.AuthConfig{Type: httpclient.AuthTypeAPIKey, HeaderKey: APIKeyHeader, APIKey: apiKey}
		},
	}
}

// NewDirectTransport talks to the provider directly with a bearer token.
func NewDirectTransport(client *httpclient.HttpClient, baseURL string) *HTTPTransport {
	return &HTTPTransport{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		generatePath: UpstreamGeneratePath,
		streamPath:   UpstreamStreamPath,
		auth: func(apiKey string) *httpclient.AuthConfig {
			return &httpclient.AuthConfig{Type: httpclient.AuthTypeBearer, APIKey: apiKey}
		},
	}
}

func (t *HTTPTransport) request(path, apiKey string, req novelai.GenerationRequest) (*httpclient.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	headers := make(http.Header)
	headers.Set("User-Agent", build.UserAgent())

	return &httpclient.Request{
		Method:      http.MethodPost,
		URL:         t.baseURL + path,
		Headers:     headers,
		ContentType: "application/json",
		Body:        body,
		Auth:        t.auth(apiKey),
	}, nil
}

func (t *HTTPTransport) Generate(ctx context.Context, apiKey string, req novelai.GenerationRequest) ([]byte, error) {
	httpReq, err := t.request(t.generatePath, apiKey, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (t *HTTPTransport) GenerateStream(ctx context.Context, apiKey string, req novelai.GenerationRequest) (httpclient.StreamDecoder, error) {
	httpReq, err := t.request(t.streamPath, apiKey, req)
	if err != nil {
		return nil, err
	}

	return t.client.DoStream(ctx, httpReq)
}
