package novelai

import (
	"github.com/samber/lo"
)

// Option is a selectable value with its display label.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

const (
	ModelV45Full          = "nai-diffusion-4-5-full"
	ModelV4Curated        = "nai-diffusion-4-curated-preview"
	ModelV4Full           = "nai-diffusion-4-full-preview"
	ModelV3               = "nai-diffusion-3"
	ModelV3Furry          = "nai-diffusion-furry-3"
	SamplerEulerAncestral = "k_euler_ancestral"
	NoiseScheduleKarras   = "karras"
)

var Models = []Option{
	{Value: ModelV45Full, Label: "NAI Diffusion V4.5 Full"},
	{Value: ModelV4Curated, Label: "NAI Diffusion V4 Curated"},
	{Value: ModelV4Full, Label: "NAI Diffusion V4 Full"},
	{Value: ModelV3, Label: "NAI Diffusion V3 (Anime)"},
	{Value: ModelV3Furry, Label: "NAI Diffusion V3 (Furry)"},
}

var Samplers = []Option{
	{Value: "k_euler", Label: "Euler"},
	{Value: SamplerEulerAncestral, Label: "Euler Ancestral"},
	{Value: "k_dpmpp_2s_ancestral", Label: "DPM++ 2S Ancestral"},
	{Value: "k_dpmpp_2m", Label: "DPM++ 2M"},
	{Value: "k_dpmpp_2m_sde", Label: "DPM++ 2M SDE"},
	{Value: "k_dpmpp_sde", Label: "DPM++ SDE"},
	{Value: "ddim_v3", Label: "DDIM V3"},
}

var NoiseSchedules = []Option{
	{Value: "native", Label: "Native"},
	{Value: NoiseScheduleKarras, Label: "Karras"},
	{Value: "exponential", Label: "Exponential"},
	{Value: "polyexponential", Label: "Polyexponential"},
}

// SizePreset is a named output resolution.
type SizePreset struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Label  string `json:"label" yaml:"label"`
}

var SizePresets = []SizePreset{
	{Width: 832, Height: 1216, Label: "Portrait"},
	{Width: 1216, Height: 832, Label: "Landscape"},
	{Width: 1024, Height: 1024, Label: "Square"},
	{Width: 1024, Height: 1536, Label: "Lg Portrait"},
	{Width: 1536, Height: 1024, Label: "Lg Landscape"},
	{Width: 1472, Height: 1472, Label: "Lg Square"},
}

// FindSizePreset looks a preset up by its label, ignoring case and spaces.
func FindSizePreset(label string) (SizePreset, bool) {
	key := normalizeLabel(label)

	return lo.Find(SizePresets, func(p SizePreset) bool {
		return normalizeLabel(p.Label) == key
	})
}

// IsKnown reports whether value is one of the catalog options.
// Values are passed through to the API unchanged, callers only use this for warnings.
func IsKnown(options []Option, value string) bool {
	return lo.ContainsBy(options, func(o Option) bool {
		return o.Value == value
	})
}

func normalizeLabel(s string) string {
	out := make([]rune, 0, len(s))

	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '_':
			continue
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, r)
		}
	}

	return string(out)
}
