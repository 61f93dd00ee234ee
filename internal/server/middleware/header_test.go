package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAPIKeyFromRequest(t *testing.T) {
	tests := []struct {
		name        string
		headers     map[string]string
		config      *APIKeyConfig
		expectedKey string
		expectedErr error
	}{
		{
			name:        "x-api-key",
			headers:     map[string]string{"x-api-key": "pst-abc"},
			expectedKey: "pst-abc",
		},
		{
			name:        "header name is case-insensitive",
			headers:     map[string]string{"X-API-KEY": "pst-abc"},
			expectedKey: "pst-abc",
		},
		{
			name:        "missing",
			headers:     map[string]string{"Authorization": "Bearer pst-abc"},
			expectedErr: ErrMissingAPIKey,
		},
		{
			name:        "blank",
			headers:     map[string]string{"x-api-key": "   "},
			expectedErr: ErrMissingAPIKey,
		},
		{
			name:    "bearer prefix stripped when configured",
			headers: map[string]string{"Authorization": "Bearer pst-abc"},
			config: &APIKeyConfig{
				Headers:         []string{"X-Api-Key", "Authorization"},
				AllowedPrefixes: []string{"Bearer "},
			},
			expectedKey: "pst-abc",
		},
		{
			name:    "headers are checked in order",
			headers: map[string]string{"Authorization": "Bearer second", "x-api-key": "first"},
			config: &APIKeyConfig{
				Headers:         []string{"X-Api-Key", "Authorization"},
				AllowedPrefixes: []string{"Bearer "},
			},
			expectedKey: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/api/generate", nil)
			require.NoError(t, err)

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			key, err := ExtractAPIKeyFromRequest(req, tt.config)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedKey, key)
		})
	}
}
