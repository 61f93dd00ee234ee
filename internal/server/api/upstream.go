package api

import (
	"errors"
	"net/url"
	"strings"

	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
)

const DefaultUpstreamURL = "https://image.novelai.net"

// UpstreamConfig locates the image generation provider.
type UpstreamConfig struct {
	BaseURL string `conf:"base_url" yaml:"base_url" json:"base_url"`

	// Proxy is used for outbound connections to the provider.
	Proxy *httpclient.ProxyConfig `conf:"proxy" yaml:"proxy" json:"proxy,omitempty"`
}

func (c UpstreamConfig) url(path string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultUpstreamURL
	}

	return strings.TrimRight(base, "/") + path
}

// transportMessage returns the transport level reason of a failed upstream call.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}

	return err.Error()
}
