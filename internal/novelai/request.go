// Package novelai holds the wire types of the NovelAI image generation API.
package novelai

type Action string

const (
	ActionGenerate Action = "generate"
	ActionImg2Img  Action = "img2img"
)

// DefaultSkipCfgAboveSigma is sent unchanged with every request.
const DefaultSkipCfgAboveSigma = 59.04722600415217

// ParamsVersion is the params_version sent with v4 caption structures.
const ParamsVersion = 3

// GenerationRequest is the body posted to generate-image and generate-image-stream.
type GenerationRequest struct {
	Input      string     `json:"input"`
	Model      string     `json:"model"`
	Action     Action     `json:"action"`
	Parameters Parameters `json:"parameters"`
}

// Parameters are the generation parameters.
// The v4 and img2img groups are flattened into the same object and omitted entirely when nil.
type Parameters struct {
	Width               int     `json:"width"`
	Height              int     `json:"height"`
	Scale               float64 `json:"scale"`
	Sampler             string  `json:"sampler"`
	Steps               int     `json:"steps"`
	NSamples            int     `json:"n_samples"`
	UCPreset            int     `json:"ucPreset"`
	QualityToggle       bool    `json:"qualityToggle"`
	SM                  bool    `json:"sm"`
	SMDyn               bool    `json:"sm_dyn"`
	DynamicThresholding bool    `json:"dynamic_thresholding"`
	ControlnetStrength  float64 `json:"controlnet_strength"`
	Legacy              bool    `json:"legacy"`
	AddOriginalImage    bool    `json:"add_original_image"`
	CfgRescale          float64 `json:"cfg_rescale"`
	NoiseSchedule       string  `json:"noise_schedule"`
	SkipCfgAboveSigma   float64 `json:"skip_cfg_above_sigma"`
	Seed                int64   `json:"seed"`
	NegativePrompt      string  `json:"negative_prompt"`

	ReferenceImageMultiple                []string  `json:"reference_image_multiple"`
	ReferenceInformationExtractedMultiple []float64 `json:"reference_information_extracted_multiple"`
	ReferenceStrengthMultiple             []float64 `json:"reference_strength_multiple"`

	*V4Fields
	*Img2ImgFields
}

// V4Fields is present iff at least one character prompt is enabled.
type V4Fields struct {
	ParamsVersion    int               `json:"params_version"`
	UseCoords        bool              `json:"use_coords"`
	V4Prompt         V4Prompt          `json:"v4_prompt"`
	V4NegativePrompt V4NegativePrompt  `json:"v4_negative_prompt"`
	CharacterPrompts []CharacterPrompt `json:"characterPrompts"`
}

// Img2ImgFields is present only for the img2img action.
type Img2ImgFields struct {
	Strength                           float64 `json:"strength"`
	Noise                              float64 `json:"noise"`
	Image                              string  `json:"image"`
	ExtraNoiseSeed                     int64   `json:"extra_noise_seed"`
	AutoSmea                           bool    `json:"autoSmea"`
	LegacyV3Extend                     bool    `json:"legacy_v3_extend"`
	NormalizeReferenceStrengthMultiple bool    `json:"normalize_reference_strength_multiple"`
	InpaintImg2ImgStrength             float64 `json:"inpaintImg2ImgStrength"`
	ColorCorrect                       bool    `json:"color_correct"`
	DeliberateEulerAncestralBug        bool    `json:"deliberate_euler_ancestral_bug"`
	PreferBrownian                     bool    `json:"prefer_brownian"`
	LegacyUC                           bool    `json:"legacy_uc"`
}

type Center struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CharacterPrompt is the api-level character prompt.
type CharacterPrompt struct {
	Prompt  string `json:"prompt"`
	UC      string `json:"uc"`
	Center  Center `json:"center"`
	Enabled bool   `json:"enabled"`
}

type V4CharCaption struct {
	CharCaption string   `json:"char_caption"`
	Centers     []Center `json:"centers"`
}

type V4Caption struct {
	BaseCaption  string          `json:"base_caption"`
	CharCaptions []V4CharCaption `json:"char_captions"`
}

type V4Prompt struct {
	Caption   V4Caption `json:"caption"`
	UseCoords bool      `json:"use_coords"`
	UseOrder  bool      `json:"use_order"`
}

type V4NegativePrompt struct {
	Caption  V4Caption `json:"caption"`
	LegacyUC bool      `json:"legacy_uc"`
}

// NewParameters returns parameters with the fixed values every request carries.
func NewParameters() Parameters {
	return Parameters{
		NSamples:                              1,
		ControlnetStrength:                    1,
		SkipCfgAboveSigma:                     DefaultSkipCfgAboveSigma,
		ReferenceImageMultiple:                []string{},
		ReferenceInformationExtractedMultiple: []float64{},
		ReferenceStrengthMultiple:             []float64{},
	}
}

// NewImg2ImgFields returns the img2img group with its fixed values.
func NewImg2ImgFields() *Img2ImgFields {
	return &Img2ImgFields{
		NormalizeReferenceStrengthMultiple: true,
		PreferBrownian:                     true,
	}
}
