package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/zer0thgear/zer0-novel-utillities/internal/imagestream"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xzip"
)

type Kind string

const (
	KindAuth           Kind = "auth"
	KindPayment        Kind = "payment"
	KindRateLimit      Kind = "rate_limit"
	KindNetwork        Kind = "network"
	KindStreamProtocol Kind = "stream_protocol"
	KindDecode         Kind = "decode"
	KindGeneric        Kind = "generic"
)

// Error is a failed generation attempt. Message is meant for the user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind) + " error"
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuth) holds for every auth failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

var (
	ErrAuth           = &Error{Kind: KindAuth}
	ErrPayment        = &Error{Kind: KindPayment}
	ErrRateLimit      = &Error{Kind: KindRateLimit}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrStreamProtocol = &Error{Kind: KindStreamProtocol}
	ErrDecode         = &Error{Kind: KindDecode}
	ErrGeneric        = &Error{Kind: KindGeneric}
)

// Refusals. None of them reach the network.
var (
	ErrBusy       = errors.New("a generation is already in progress")
	ErrNoPrompt   = errors.New("no prompt to generate")
	ErrMissingKey = &Error{Kind: KindAuth, Message: "No API key set. Please enter your NovelAI API key."}
)

const (
	msgInvalidKey        = "Invalid API key."
	msgInsufficientAnlas = "Insufficient Anlas. Please top up your account."
	msgRateLimited       = "Rate limited. Please wait a moment and try again."
	msgNoImages          = "No images found in the response. The API may have returned an error zip."
	msgNoFinal           = "The stream ended without a final image."
	msgMalformedFinal    = "The final image of the stream could not be decoded."
	msgFrameTooLarge     = "The stream sent a frame that is too large."
)

// fromResponse classifies an error returned by a transport call.
func fromResponse(err error) error {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) {
		return fromStatus(httpErr.StatusCode, httpErr.Body, err)
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return err
	}

	return networkError(err)
}

func fromStatus(status int, body []byte, cause error) *Error {
	switch status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindAuth, Status: status, Message: msgInvalidKey, Err: cause}
	case http.StatusPaymentRequired:
		return &Error{Kind: KindPayment, Status: status, Message: msgInsufficientAnlas, Err: cause}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Status: status, Message: msgRateLimited, Err: cause}
	default:
		return &Error{
			Kind:    KindGeneric,
			Status:  status,
			Message: fmt.Sprintf("Generation failed (%d): %s", status, errorField(status, body)),
			Err:     cause,
		}
	}
}

// errorField returns the error field of a JSON body, or the status text when the body is not JSON.
func errorField(status int, body []byte) string {
	if !gjson.ValidBytes(body) {
		return http.StatusText(status)
	}

	return gjson.GetBytes(body, "error").String()
}

func networkError(err error) *Error {
	msg := "Network error: " + err.Error()
	if errors.Is(err, context.Canceled) {
		msg = "Generation cancelled."
	}

	return &Error{Kind: KindNetwork, Message: msg, Err: err}
}

// fromStream classifies an error returned while reading an image stream.
func fromStream(err error) error {
	var providerErr *imagestream.ProviderError

	switch {
	case errors.As(err, &providerErr):
		return &Error{Kind: KindStreamProtocol, Message: "Generation failed: " + providerErr.Raw, Err: err}
	case errors.Is(err, imagestream.ErrNoFinal):
		return &Error{Kind: KindStreamProtocol, Message: msgNoFinal, Err: err}
	case errors.Is(err, imagestream.ErrMalformedFinal):
		return &Error{Kind: KindStreamProtocol, Message: msgMalformedFinal, Err: err}
	case errors.Is(err, httpclient.ErrEventTooLarge):
		return &Error{Kind: KindStreamProtocol, Message: msgFrameTooLarge, Err: err}
	default:
		return networkError(err)
	}
}

func decodeError(err error) *Error {
	msg := msgNoImages
	if !errors.Is(err, xzip.ErrNoImages) {
		msg = "Failed to read the response archive: " + err.Error()
	}

	return &Error{Kind: KindDecode, Message: msg, Err: err}
}
