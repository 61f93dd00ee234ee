package prompt

import (
	"encoding/base64"
	"fmt"
	"math"

	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

// EnhanceLevel maps a level to its img2img strength and noise.
// Anlas is the advisory cost shown to the user.
type EnhanceLevel struct {
	Level    int     `json:"level"`
	Strength float64 `json:"strength"`
	Noise    float64 `json:"noise"`
	Anlas    int     `json:"anlas"`
}

var EnhanceLevels = []EnhanceLevel{
	{Level: 1, Strength: 0.2, Noise: 0, Anlas: 9},
	{Level: 2, Strength: 0.4, Noise: 0, Anlas: 18},
	{Level: 3, Strength: 0.5, Noise: 0, Anlas: 23},
	{Level: 4, Strength: 0.6, Noise: 0, Anlas: 27},
	{Level: 5, Strength: 0.7, Noise: 0.1, Anlas: 32},
}

// LevelFor returns the table entry for level 1 to 5.
func LevelFor(level int) (EnhanceLevel, error) {
	if level < 1 || level > len(EnhanceLevels) {
		return EnhanceLevel{}, fmt.Errorf("enhance level must be between 1 and %d, got %d", len(EnhanceLevels), level)
	}

	return EnhanceLevels[level-1], nil
}

const upscaleFactor = 1.5

// Round64 rounds n to the nearest multiple of 64, halves round up.
func Round64(n float64) int {
	return int(math.Floor(n/64+0.5)) * 64
}

// EnhanceDimensions returns the target size, scaled by 1.5 and rounded per axis when upscaling.
func EnhanceDimensions(width, height int, upscale bool) (int, int) {
	if !upscale {
		return width, height
	}

	return Round64(float64(width) * upscaleFactor), Round64(float64(height) * upscaleFactor)
}

// EnhanceInput describes one enhancement of an existing image.
type EnhanceInput struct {
	Source         objects.GeneratedImage
	Level          int
	Upscale        bool
	Seed           int64
	ExtraNoiseSeed int64
}

// BuildEnhanceRequest builds the img2img request for a source image.
// Text rules are the same as for generation and use the selected base prompt.
func BuildEnhanceRequest(s objects.FormSettings, in EnhanceInput) (novelai.GenerationRequest, error) {
	level, err := LevelFor(in.Level)
	if err != nil {
		return novelai.GenerationRequest{}, err
	}

	if len(in.Source.Data) == 0 {
		return novelai.GenerationRequest{}, fmt.Errorf("source image %q has no data", in.Source.ID)
	}

	base, _ := s.SelectedPrompt()
	positive := AssemblePositive(s, base.Text)
	negative := AssembleNegative(s)

	width, height := EnhanceDimensions(in.Source.Parameters.Width, in.Source.Parameters.Height, in.Upscale)

	params := novelai.NewParameters()
	params.Width = width
	params.Height = height
	params.Scale = s.Scale
	params.Sampler = s.Sampler
	params.Steps = s.Steps
	params.QualityToggle = s.QualityToggle
	params.AddOriginalImage = true
	params.CfgRescale = s.CfgRescale
	params.NoiseSchedule = s.NoiseSchedule
	params.Seed = in.Seed
	params.NegativePrompt = negative
	params.V4Fields = v4Fields(s, positive, negative)

	img := novelai.NewImg2ImgFields()
	img.Strength = level.Strength
	img.Noise = level.Noise
	img.Image = base64.StdEncoding.EncodeToString(in.Source.Data)
	img.ExtraNoiseSeed = in.ExtraNoiseSeed
	params.Img2ImgFields = img

	return novelai.GenerationRequest{
		Input:      positive,
		Model:      s.Model,
		Action:     novelai.ActionImg2Img,
		Parameters: params,
	}, nil
}
