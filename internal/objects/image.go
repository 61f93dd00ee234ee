package objects

import (
	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
)

// DisplayRef identifies a display resource owned by the session.
// The zero value means no resource.
type DisplayRef string

// GeneratedImage is one image produced by a generation.
type GeneratedImage struct {
	ID             string             `json:"id"`
	Data           []byte             `json:"-"`
	Prompt         string             `json:"prompt"`
	NegativePrompt string             `json:"negativePrompt"`
	Model          string             `json:"model"`
	Parameters     novelai.Parameters `json:"parameters"`

	// Timestamp is in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	Seed      int64 `json:"seed"`

	// Set for enhanced images.
	SourceImageID string     `json:"sourceImageId,omitempty"`
	SourceDisplay DisplayRef `json:"-"`

	Display DisplayRef `json:"-"`
}
