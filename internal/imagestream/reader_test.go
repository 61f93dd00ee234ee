package imagestream

import (
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/streams"
)

func streamOf(t *testing.T, transcript string) httpclient.StreamDecoder {
	t.Helper()

	return httpclient.NewDefaultSSEDecoder(t.Context(), io.NopCloser(strings.NewReader(transcript)))
}

func record(event, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

func TestRead_FinalAfterPreviews(t *testing.T) {
	preview := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0x01})
	final := base64.StdEncoding.EncodeToString(solidPNG(t, color.White))

	transcript := record("intermediate", preview) +
		record("intermediate", "%%%broken%%%") +
		record("newToken", fmt.Sprintf(`{"image":%q}`, preview)) +
		record("final", final)

	var previews []Image

	img, err := Read(t.Context(), streamOf(t, transcript), HandlerFunc(func(_ context.Context, img Image) {
		previews = append(previews, img)
	}))
	require.NoError(t, err)

	assert.Equal(t, FormatPNG, img.Format)
	require.Len(t, previews, 2)
	assert.Equal(t, FormatJPEG, previews[0].Format)
}

func TestRead_IntermediateOnly(t *testing.T) {
	preview := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0x01})

	_, err := Read(t.Context(), streamOf(t, record("intermediate", preview)+record("intermediate", preview)), nil)
	require.ErrorIs(t, err, ErrNoFinal)
}

func TestRead_ErrorEvent(t *testing.T) {
	_, err := Read(t.Context(), streamOf(t, record("StreamingEventTypeError", `{"message":"filtered"}`)), nil)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.JSONEq(t, `{"message":"filtered"}`, providerErr.Raw)
}

func TestRead_MalformedFinal(t *testing.T) {
	_, err := Read(t.Context(), streamOf(t, record("final", "@@@")), nil)
	require.ErrorIs(t, err, ErrMalformedFinal)
}

func TestRead_UnknownEventsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	previous := log.GetGlobalLogger()
	log.SetGlobalLogger(log.NewWithCore(core))
	t.Cleanup(func() { log.SetGlobalLogger(previous) })

	final := base64.StdEncoding.EncodeToString(solidPNG(t, color.Black))

	_, err := Read(t.Context(), streamOf(t, record("progress", `{"step":1}`)+record("final", final)), nil)
	require.NoError(t, err)

	entries := logs.FilterMessage("ignoring unknown stream event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "progress", entries[0].ContextMap()["event"])
}

func TestRead_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	stream := httpclient.NewDefaultSSEDecoder(ctx, io.NopCloser(strings.NewReader(record("final", "QUJD"))))

	_, err := Read(ctx, stream, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRead_DecodedEvents(t *testing.T) {
	final := base64.StdEncoding.EncodeToString(solidPNG(t, color.White))

	stream := streams.SliceStream([]*httpclient.StreamEvent{
		{Type: "message", Data: []byte(`{"event_type":"intermediate","image":"/9j/AQ=="}`)},
		{Type: "message", Data: []byte(fmt.Sprintf(`{"event_type":"final","image":%q}`, final))},
	})

	frames := 0

	img, err := Read(t.Context(), stream, HandlerFunc(func(context.Context, Image) { frames++ }))
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, img.Format)
	assert.Equal(t, 1, frames)
}
