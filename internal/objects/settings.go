package objects

import (
	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
)

// DefaultNegativePrompt is the negative prompt new settings start with.
const DefaultNegativePrompt = "lowres, {bad}, error, fewer, extra, missing, worst quality, jpeg artifacts, bad quality, watermark, unfinished, displeasing, chromatic aberration, signature, extra digits, artistic error, username, scan, [abstract]"

// FormSettings is every user editable generation setting.
type FormSettings struct {
	BasePrompts          []BasePrompt `json:"basePrompts"`
	PromptMode           PromptMode   `json:"promptMode"`
	FurMode              bool         `json:"furMode"`
	NSFWMode             bool         `json:"nsfwMode"`
	QualityTags          bool         `json:"qualityTags"`
	BaseNegativeCaptions bool         `json:"baseNegativeCaptions"`
	NegativePrompt       string       `json:"negativePrompt"`
	Model                string       `json:"model"`
	Width                int          `json:"width"`
	Height               int          `json:"height"`
	Steps                int          `json:"steps"`
	Scale                float64      `json:"scale"`
	Sampler              string       `json:"sampler"`
	NoiseSchedule        string       `json:"noiseSchedule"`
	Seed                 int64        `json:"seed"`
	SMEA                 bool         `json:"smea"`
	SMEADyn              bool         `json:"smeaDyn"`
	QualityToggle        bool         `json:"qualityToggle"`
	CfgRescale           float64      `json:"cfgRescale"`

	Characters    []CharacterPromptEntry `json:"characters"`
	UseCoords     bool                   `json:"useCoords"`
	StreamingMode bool                   `json:"streamingMode"`
}

// DefaultFormSettings returns a fresh copy of the default settings.
func DefaultFormSettings() FormSettings {
	return FormSettings{
		BasePrompts:    []BasePrompt{{ID: "p-default", Label: "Prompt 1", Text: "", Selected: true}},
		PromptMode:     PromptModeSingle,
		NegativePrompt: DefaultNegativePrompt,
		Model:          novelai.ModelV45Full,
		Width:          832,
		Height:         1216,
		Steps:          28,
		Scale:          6,
		Sampler:        novelai.SamplerEulerAncestral,
		NoiseSchedule:  novelai.NoiseScheduleKarras,
		QualityToggle:  true,
		Characters:     []CharacterPromptEntry{},
	}
}

// Clone returns a deep copy, the slices are not shared.
func (s FormSettings) Clone() FormSettings {
	out := s
	out.BasePrompts = append([]BasePrompt{}, s.BasePrompts...)
	out.Characters = append([]CharacterPromptEntry{}, s.Characters...)

	return out
}

// SelectedPrompt returns the first selected base prompt.
func (s FormSettings) SelectedPrompt() (BasePrompt, bool) {
	for _, p := range s.BasePrompts {
		if p.Selected {
			return p, true
		}
	}

	return BasePrompt{}, false
}

// EnabledCharacters returns the characters that take part in generation.
func (s FormSettings) EnabledCharacters() []CharacterPromptEntry {
	var out []CharacterPromptEntry

	for _, c := range s.Characters {
		if c.Enabled {
			out = append(out, c)
		}
	}

	return out
}
