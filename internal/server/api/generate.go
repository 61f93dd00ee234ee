package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/fx"

	"github.com/zer0thgear/zer0-novel-utillities/internal/contexts"
	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
)

const (
	UpstreamGeneratePath = "/ai/generate-image"
	UpstreamStreamPath   = "/ai/generate-image-stream"
)

const pipeChunkSize = 32 * 1024

type GenerateHandlersParams struct {
	fx.In

	HttpClient *httpclient.HttpClient
	Upstream   UpstreamConfig
}

// GenerateHandlers forward generation requests to the provider, attaching the caller's key
// as a bearer token.
type GenerateHandlers struct {
	HttpClient *httpclient.HttpClient
	Upstream   UpstreamConfig
}

func NewGenerateHandlers(params GenerateHandlersParams) *GenerateHandlers {
	return &GenerateHandlers{
		HttpClient: params.HttpClient,
		Upstream:   params.Upstream,
	}
}

// upstreamRequest validates the caller's request and builds the provider request.
// It writes the error response itself and returns false when the request is rejected.
func (handlers *GenerateHandlers) upstreamRequest(c *gin.Context, path string) (*httpclient.Request, bool) {
	apiKey, ok := contexts.GetAPIKey(c.Request.Context())
	if !ok {
		JSONError(c, http.StatusUnauthorized, "Missing API key")
		return nil, false
	}

	incoming, err := httpclient.ReadHTTPRequest(c.Request)
	if err != nil || !gjson.ValidBytes(incoming.Body) {
		JSONError(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	return &httpclient.Request{
		Method:      http.MethodPost,
		URL:         handlers.Upstream.url(path),
		Headers:     make(http.Header),
		ContentType: "application/json",
		Body:        incoming.Body,
		Auth: &httpclient.AuthConfig{
			Type:   httpclient.AuthTypeBearer,
			APIKey: apiKey,
		},
	}, true
}

// writeUpstreamError maps a failed upstream call to the proxy response.
func writeUpstreamError(c *gin.Context, err error) {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) {
		JSONError(c, httpErr.StatusCode, string(httpErr.Body))
		return
	}

	JSONError(c, http.StatusBadGateway, "Failed to reach NovelAI: "+transportMessage(err))
}

// Generate returns the provider's zip archive.
func (handlers *GenerateHandlers) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	req, ok := handlers.upstreamRequest(c, UpstreamGeneratePath)
	if !ok {
		return
	}

	resp, err := handlers.HttpClient.Do(ctx, req)
	if err != nil {
		log.Warn(ctx, "generate request failed", log.Cause(err))
		writeUpstreamError(c, err)

		return
	}

	log.Debug(ctx, "generate request succeeded", log.Int("size", len(resp.Body)))

	c.Data(http.StatusOK, "application/zip", resp.Body)
}

// GenerateStream pipes the provider's event stream byte for byte, flushing after every chunk.
func (handlers *GenerateHandlers) GenerateStream(c *gin.Context) {
	ctx := c.Request.Context()

	req, ok := handlers.upstreamRequest(c, UpstreamStreamPath)
	if !ok {
		return
	}

	resp, err := handlers.HttpClient.DoRaw(ctx, req)
	if err != nil {
		log.Warn(ctx, "generate stream request failed", log.Cause(err))
		writeUpstreamError(c, err)

		return
	}

	defer func() {
		err := resp.Stream.Close()
		if err != nil {
			log.Debug(ctx, "failed to close upstream stream", log.Cause(err))
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	written, err := pipe(ctx, c.Writer, resp.Stream)
	if err != nil {
		log.Warn(ctx, "stream pipe stopped", log.Int64("bytes", written), log.Cause(err))
		return
	}

	log.Debug(ctx, "stream pipe finished", log.Int64("bytes", written))
}

// pipe copies src to w until EOF, flushing after every chunk.
func pipe(ctx context.Context, w gin.ResponseWriter, src io.Reader) (int64, error) {
	buf := make([]byte, pipeChunkSize)

	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, err
			}

			w.Flush()

			written += int64(n)
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}

		if readErr != nil {
			return written, readErr
		}
	}
}
