package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

func ReadHTTPRequest(rawReq *http.Request) (*Request, error) {
	req := &Request{
		Method:     rawReq.Method,
		URL:        rawReq.URL.String(),
		Headers:    rawReq.Header,
		RawRequest: rawReq,
	}

	body, err := io.ReadAll(rawReq.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	req.Body = body

	return req, nil
}

// IsSuccessStatus reports whether the status is 2xx.
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

var blockedHeaders = map[string]bool{
	"Content-Length":    true,
	"Transfer-Encoding": true,
	// The client will handle it automatically.
	"Accept-Encoding": true,
	"Authorization":   true,
	"Api-Key":         true,
	"X-Api-Key":       true,
}
