package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/streams"
)

// Request represents a generic outbound HTTP request.
type Request struct {
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	Query       url.Values  `json:"query"`
	Headers     http.Header `json:"headers"`
	ContentType string      `json:"content_type"`
	Body        []byte      `json:"body,omitempty"`

	// Authentication
	Auth *AuthConfig `json:"auth,omitempty"`

	// Raw HTTP request for advanced use cases
	RawRequest *http.Request `json:"-"`
}

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	// Type represents the type of authentication.
	// "bearer", "api_key"
	Type string `json:"type"`

	// APIKey is the API key for the request.
	APIKey string `json:"-"`

	// HeaderKey is the header key for the request if the type is "api_key".
	HeaderKey string `json:"header_key,omitempty"`
}

const (
	AuthTypeBearer = "bearer"
	AuthTypeAPIKey = "api_key"
)

// Response represents a generic HTTP response.
type Response struct {
	StatusCode int `json:"status_code"`

	Headers http.Header `json:"headers"`

	// Body is set for buffered responses.
	Body []byte `json:"body,omitempty"`

	// Stream is set by DoRaw; the caller owns it and must close it.
	Stream io.ReadCloser `json:"-"`

	Request *Request `json:"-"`

	RawResponse *http.Response `json:"-"`
}

// StreamEvent is one Server-Sent Events record.
type StreamEvent struct {
	LastEventID string `json:"last_event_id,omitempty"`
	Type        string `json:"type"`
	Data        []byte `json:"data"`
}

// StreamDecoder defines the interface for decoding streaming responses.
type StreamDecoder = streams.Stream[*StreamEvent]

// StreamDecoderFactory is a function that creates a StreamDecoder from a ReadCloser.
type StreamDecoderFactory func(ctx context.Context, rc io.ReadCloser) StreamDecoder

type ProxyType string

const (
	ProxyTypeDisabled    ProxyType = "disabled"
	ProxyTypeEnvironment ProxyType = "environment"
	ProxyTypeURL         ProxyType = "url"
)

// ProxyConfig selects how outbound connections reach the network.
type ProxyConfig struct {
	Type     ProxyType `conf:"type" yaml:"type" json:"type"`
	URL      string    `conf:"url" yaml:"url" json:"url"`
	Username string    `conf:"username" yaml:"username" json:"username"`
	Password string    `conf:"password" yaml:"password" json:"-"`
}
