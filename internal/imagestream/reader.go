package imagestream

import (
	"context"
	"errors"
	"fmt"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
)

var (
	// ErrNoFinal is returned when the stream ends cleanly without a final event.
	ErrNoFinal = errors.New("stream ended without a final image")

	// ErrMalformedFinal is returned when the final event cannot be decoded.
	ErrMalformedFinal = errors.New("final image could not be decoded")
)

// ProviderError is an error event reported by the provider.
type ProviderError struct {
	Raw string
}

func (e *ProviderError) Error() string {
	return "stream reported an error: " + e.Raw
}

// Handler receives preview frames while a stream is read.
type Handler interface {
	OnPreview(ctx context.Context, img Image)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, img Image)

func (f HandlerFunc) OnPreview(ctx context.Context, img Image) {
	f(ctx, img)
}

// Read consumes the stream until a final or error event and returns the final image.
// Intermediate frames that fail to decode are dropped, unknown events are logged and skipped.
// The stream is closed before Read returns.
func Read(ctx context.Context, stream httpclient.StreamDecoder, handler Handler) (Image, error) {
	defer func() {
		if err := stream.Close(); err != nil {
			log.Debug(ctx, "failed to close image stream", log.Cause(err))
		}
	}()

	for stream.Next() {
		record := stream.Current()
		ev := Interpret(record.Type, record.Data)

		switch ev.Type {
		case EventIntermediate:
			img, err := DecodeImage(ev.Payload)
			if err != nil {
				log.Debug(ctx, "dropping undecodable preview frame", log.String("event", ev.Name), log.Cause(err))
				continue
			}

			if handler != nil {
				handler.OnPreview(ctx, img)
			}
		case EventFinal:
			img, err := DecodeImage(ev.Payload)
			if err != nil {
				return Image{}, fmt.Errorf("%w: %w", ErrMalformedFinal, err)
			}

			return img, nil
		case EventError:
			return Image{}, &ProviderError{Raw: ev.Raw}
		default:
			log.Warn(ctx, "ignoring unknown stream event", log.String("event", ev.Name), log.Int("size", len(record.Data)))
		}
	}

	if err := stream.Err(); err != nil {
		return Image{}, err
	}

	return Image{}, ErrNoFinal
}
