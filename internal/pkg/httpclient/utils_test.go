package httpclient

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSuccessStatus(t *testing.T) {
	require.True(t, IsSuccessStatus(200))
	require.True(t, IsSuccessStatus(201))
	require.True(t, IsSuccessStatus(299))
	require.False(t, IsSuccessStatus(199))
	require.False(t, IsSuccessStatus(300))
	require.False(t, IsSuccessStatus(401))
	require.False(t, IsSuccessStatus(502))
}

func TestReadHTTPRequest(t *testing.T) {
	raw := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"input":"a"}`))
	raw.Header.Set("X-Api-Key", "k")

	req, err := ReadHTTPRequest(raw)
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, `{"input":"a"}`, string(req.Body))
	require.Equal(t, "k", req.Headers.Get("X-Api-Key"))
}

func TestStatusCodeOf(t *testing.T) {
	code, ok := StatusCodeOf(&Error{StatusCode: 402})
	require.True(t, ok)
	require.Equal(t, 402, code)

	_, ok = StatusCodeOf(http.ErrHandlerTimeout)
	require.False(t, ok)
}
