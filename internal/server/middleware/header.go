package middleware

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMissingAPIKey is returned when none of the configured headers carries a key.
var ErrMissingAPIKey = errors.New("Missing API key")

// APIKeyConfig configures where the provider key is read from.
type APIKeyConfig struct {
	// Headers are checked in order.
	Headers []string `conf:"headers" yaml:"headers" json:"headers"`

	// AllowedPrefixes are stripped from the header value, e.g. "Bearer ".
	AllowedPrefixes []string `conf:"allowed_prefixes" yaml:"allowed_prefixes" json:"allowed_prefixes"`
}

var DefaultAPIKeyConfig = defaultAPIKeyConfig()

func defaultAPIKeyConfig() *APIKeyConfig {
	return &APIKeyConfig{
		Headers: []string{"X-Api-Key"},
	}
}

// ExtractAPIKeyFromRequest returns the first non-empty key found in the configured headers.
func ExtractAPIKeyFromRequest(r *http.Request, config *APIKeyConfig) (string, error) {
	if config == nil {
		config = DefaultAPIKeyConfig
	}

	for _, headerName := range config.Headers {
		headerValue := r.Header.Get(headerName)
		if headerValue == "" {
			continue
		}

		apiKey := headerValue

		for _, prefix := range config.AllowedPrefixes {
			if strings.HasPrefix(headerValue, prefix) {
				apiKey = strings.TrimPrefix(headerValue, prefix)
				break
			}
		}

		if strings.TrimSpace(apiKey) == "" {
			continue
		}

		return strings.TrimSpace(apiKey), nil
	}

	return "", ErrMissingAPIKey
}
