package generation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zer0thgear/zer0-novel-utillities/internal/imagestream"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/httpclient"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xzip"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("attempt 2: %w", &Error{Kind: KindPayment, Message: "pay up"})

	assert.ErrorIs(t, err, ErrPayment)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.NotErrorIs(t, err, ErrBusy)
	assert.Equal(t, "attempt 2: pay up", err.Error())
	assert.Equal(t, "decode error", ErrDecode.Error())
}

func TestFromStream(t *testing.T) {
	assert.ErrorIs(t, fromStream(&imagestream.ProviderError{Raw: "x"}), ErrStreamProtocol)
	assert.ErrorIs(t, fromStream(imagestream.ErrNoFinal), ErrStreamProtocol)
	assert.ErrorIs(t, fromStream(fmt.Errorf("wrap: %w", imagestream.ErrMalformedFinal)), ErrStreamProtocol)
	assert.ErrorIs(t, fromStream(fmt.Errorf("%w: 40000000 bytes", httpclient.ErrEventTooLarge)), ErrStreamProtocol)
	assert.ErrorIs(t, fromStream(errors.New("connection reset")), ErrNetwork)
}

func TestDecodeError(t *testing.T) {
	assert.Equal(t, msgNoImages, decodeError(xzip.ErrNoImages).Error())
	assert.Contains(t, decodeError(errors.New("not a zip")).Error(), "not a zip")
}
