package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
)

// decoderRegistry holds registered stream decoders.
type decoderRegistry struct {
	mu       sync.RWMutex
	decoders map[string]StreamDecoderFactory
}

// globalRegistry is the global decoder registry.
var globalRegistry = &decoderRegistry{
	decoders: make(map[string]StreamDecoderFactory),
}

// RegisterDecoder registers a stream decoder for a specific content type.
func RegisterDecoder(contentType string, factory StreamDecoderFactory) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.decoders[contentType] = factory
}

// GetDecoder returns a decoder factory for the given content type.
func GetDecoder(contentType string) (StreamDecoderFactory, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	factory, exists := globalRegistry.decoders[contentType]

	return factory, exists
}

const (
	// DefaultEventType is used for records without an event field.
	DefaultEventType = "message"

	// Image frames are large, a single record may carry several megabytes of base64.
	maxEventSize = 32 * 1024 * 1024
	readChunk    = 32 * 1024
)

// ErrEventTooLarge is returned when a record grows past the size limit without a delimiter.
var ErrEventTooLarge = errors.New("sse event exceeds maximum size")

// NewDefaultSSEDecoder creates a new default SSE decoder.
func NewDefaultSSEDecoder(ctx context.Context, rc io.ReadCloser) StreamDecoder {
	return &sseDecoder{
		ctx:   ctx,
		rc:    rc,
		chunk: make([]byte, readChunk),
	}
}

// Ensure sseDecoder implements StreamDecoder.
var _ StreamDecoder = (*sseDecoder)(nil)

// sseDecoder splits a byte stream into records separated by a blank line.
// Bytes are buffered until a delimiter arrives, so chunk boundaries never change the output.
//
// NOT concurrency-safe: do not call Next/Close from multiple goroutines.
//
//nolint:containedctx // Checked.
type sseDecoder struct {
	ctx   context.Context
	rc    io.ReadCloser
	buf   []byte
	chunk []byte

	// scanned is how far buf is known to hold no delimiter.
	scanned int

	current *StreamEvent
	err     error
	eof     bool

	closed   bool
	closeErr error
}

// Next advances to the next record that carries data.
func (s *sseDecoder) Next() bool {
	if s.err != nil || s.closed {
		return false
	}

	for {
		if ev, ok := s.popRecord(); ok {
			s.current = ev
			return true
		}

		if s.eof {
			if len(s.buf) > 0 {
				log.Debug(s.ctx, "dropping undelimited SSE trailer", log.Int("size", len(s.buf)))
				s.buf = nil
				s.scanned = 0
			}

			_ = s.Close()

			return false
		}

		if len(s.buf) > maxEventSize {
			s.err = fmt.Errorf("%w: %d bytes", ErrEventTooLarge, len(s.buf))
			_ = s.Close()

			return false
		}

		if err := s.ctx.Err(); err != nil {
			s.err = err
			_ = s.Close()

			return false
		}

		n, err := s.rc.Read(s.chunk)
		if n > 0 {
			s.buf = append(s.buf, s.chunk[:n]...)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
				continue
			}

			// A cancelled request surfaces as a read error, report the cancellation instead.
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}

			s.err = err
			_ = s.Close()

			return false
		}
	}
}

// popRecord removes complete records from the buffer until one carries data.
// Scanning resumes where the previous call stopped, short of a partial delimiter.
func (s *sseDecoder) popRecord() (*StreamEvent, bool) {
	for {
		idx, size := nextDelimiter(s.buf[s.scanned:])
		if idx < 0 {
			s.scanned = max(0, len(s.buf)-len(crlfDelimiter)+1)
			return nil, false
		}

		idx += s.scanned
		record := s.buf[:idx]
		s.buf = s.buf[idx+size:]
		s.scanned = 0

		if ev, ok := parseRecord(record); ok {
			return ev, true
		}
	}
}

// Current returns the current event data.
func (s *sseDecoder) Current() *StreamEvent {
	return s.current
}

// Err returns any error that occurred during streaming.
func (s *sseDecoder) Err() error {
	return s.err
}

// Close closes the stream and releases resources.
func (s *sseDecoder) Close() error {
	if s.closed {
		return s.closeErr
	}

	s.closed = true
	if s.rc != nil {
		s.closeErr = s.rc.Close()
		log.Debug(s.ctx, "SSE stream closed")
	}

	return s.closeErr
}

var (
	lfDelimiter   = []byte("\n\n")
	crlfDelimiter = []byte("\r\n\r\n")
)

// nextDelimiter returns the position and length of the earliest record delimiter.
func nextDelimiter(buf []byte) (int, int) {
	lf := bytes.Index(buf, lfDelimiter)
	crlf := bytes.Index(buf, crlfDelimiter)

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0:
		return lf, len(lfDelimiter)
	case lf < 0 || crlf < lf:
		return crlf, len(crlfDelimiter)
	default:
		return lf, len(lfDelimiter)
	}
}

// parseRecord reads the event, data and id fields of one record.
// Records without any data line are not events.
func parseRecord(record []byte) (*StreamEvent, bool) {
	var (
		eventType string
		lastID    string
		data      [][]byte
	)

	for _, line := range bytes.Split(record, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))

		switch {
		case len(line) == 0, line[0] == ':':
			continue
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			value := line[len("data:"):]
			value = bytes.TrimPrefix(value, []byte(" "))
			data = append(data, value)
		case bytes.HasPrefix(line, []byte("id:")):
			lastID = string(bytes.TrimSpace(line[len("id:"):]))
		}
	}

	if len(data) == 0 {
		return nil, false
	}

	if eventType == "" {
		eventType = DefaultEventType
	}

	return &StreamEvent{
		LastEventID: lastID,
		Type:        eventType,
		Data:        bytes.Join(data, []byte("\n")),
	}, true
}

// init registers the default SSE decoder.
func init() {
	RegisterDecoder("text/event-stream", NewDefaultSSEDecoder)
	RegisterDecoder("text/event-stream; charset=utf-8", NewDefaultSSEDecoder)
}
