// Package imagestream classifies image generation stream events and decodes their image payloads.
package imagestream

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xzip"
)

type EventType string

const (
	EventIntermediate EventType = "intermediate"
	EventFinal        EventType = "final"
	EventError        EventType = "error"
	EventUnknown      EventType = "unknown"
)

// aliases maps every provider event name to its bucket. Matching is exact and case-sensitive.
var aliases = map[string]EventType{
	"intermediate":                   EventIntermediate,
	"StreamingEventTypeIntermediate": EventIntermediate,
	"newToken":                       EventIntermediate,
	"final":                          EventFinal,
	"done":                           EventFinal,
	"StreamingEventTypeFinal":        EventFinal,
	"error":                          EventError,
	"StreamingEventTypeError":        EventError,
}

// Classify returns the bucket for a provider event name.
func Classify(name string) EventType {
	if t, ok := aliases[name]; ok {
		return t
	}

	return EventUnknown
}

// typeFields are consulted in order for the authoritative event name of a JSON payload.
var typeFields = []string{"event_type", "event"}

// imageFields are consulted in order for the base64 image of a JSON payload.
var imageFields = []string{"image", "response", "data", "frame"}

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Image is a decoded image payload.
type Image struct {
	Bytes  []byte
	Format Format
}

// Event is one interpreted stream event.
type Event struct {
	Type EventType

	// Name is the provider event name the type was derived from.
	Name string

	// Payload is the base64 image text, empty when the payload carried none.
	Payload string

	// Raw is the unmodified data of the record.
	Raw string
}

// Interpret decides the type of one (name, data) record and extracts its image payload.
// Only JSON objects are treated as JSON, anything else is taken as a bare base64 string.
func Interpret(name string, data []byte) Event {
	ev := Event{Name: name, Raw: string(data)}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' && gjson.ValidBytes(trimmed) {
		parsed := gjson.ParseBytes(trimmed)

		for _, field := range typeFields {
			if v := parsed.Get(field); v.Type == gjson.String {
				ev.Name = v.String()
				break
			}
		}

		for _, field := range imageFields {
			if v := parsed.Get(field); v.Type == gjson.String {
				ev.Payload = v.String()
				break
			}
		}
	} else {
		ev.Payload = string(data)
	}

	ev.Type = Classify(ev.Name)

	return ev
}

var (
	// ErrEmptyPayload is returned when an image event carries no image data.
	ErrEmptyPayload = errors.New("event carries no image data")

	// ErrInvalidBase64 wraps base64 decoding failures.
	ErrInvalidBase64 = errors.New("invalid base64 image data")
)

// DecodeImage strips whitespace, base64 decodes the payload and sniffs its container.
// Zip payloads yield their first png entry.
func DecodeImage(payload string) (Image, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, payload)

	if clean == "" {
		return Image{}, ErrEmptyPayload
	}

	enc := base64.StdEncoding
	if len(clean)%4 != 0 && !strings.HasSuffix(clean, "=") {
		enc = base64.RawStdEncoding
	}

	raw, err := enc.DecodeString(clean)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrInvalidBase64, err)
	}

	return Sniff(raw)
}

// Sniff identifies raw image bytes by their leading magic.
func Sniff(raw []byte) (Image, error) {
	switch {
	case xzip.IsZip(raw):
		entry, err := xzip.FirstPNG(raw)
		if err != nil {
			return Image{}, fmt.Errorf("failed to extract image from zip payload: %w", err)
		}

		return Image{Bytes: entry.Data, Format: FormatPNG}, nil
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xD8:
		return Image{Bytes: raw, Format: FormatJPEG}, nil
	default:
		return Image{Bytes: raw, Format: FormatPNG}, nil
	}
}
