// Package prompt turns form settings into NovelAI generation requests.
// Everything here is pure: the same settings always produce the same request.
package prompt

import (
	"strings"

	"github.com/samber/lo"

	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
)

const (
	furPrefix     = "fur dataset"
	nsfwPrefix    = "nsfw"
	qualitySuffix = ", very aesthetic, masterpiece"
	noTextSuffix  = ", no text"

	// TextToken suppresses the no text suffix when present in any prompt. Case-sensitive.
	TextToken = "Text:"
)

// BaseNegativeTags is the catalog prepended to the negative prompt when base negative captions are on.
// Order is significant, survivors keep it.
var BaseNegativeTags = []string{
	"nsfw", "lowres", "artistic error", "film grain", "scan artifacts",
	"worst quality", "bad quality", "jpeg artifacts", "very displeasing",
	"chromatic aberration", "dithering", "halftone", "screentone",
	"multiple views", "logo", "too many watermarks", "negative space", "blank page",
}

// AssemblePositive applies the prefixes and the quality suffix to text.
func AssemblePositive(s objects.FormSettings, text string) string {
	var prefixes []string
	if s.FurMode {
		prefixes = append(prefixes, furPrefix)
	}

	if s.NSFWMode {
		prefixes = append(prefixes, nsfwPrefix)
	}

	out := text
	if len(prefixes) > 0 {
		out = strings.Join(prefixes, ", ") + ", " + text
	}

	if s.QualityTags {
		out += qualitySuffix
		if !HasTextToken(s) {
			out += noTextSuffix
		}
	}

	return out
}

// HasTextToken reports whether any base prompt or character prompt contains TextToken.
// The whole lists are scanned, selection and enabled flags are ignored.
func HasTextToken(s objects.FormSettings) bool {
	return lo.SomeBy(s.BasePrompts, func(p objects.BasePrompt) bool {
		return strings.Contains(p.Text, TextToken)
	}) || lo.SomeBy(s.Characters, func(c objects.CharacterPromptEntry) bool {
		return strings.Contains(c.Prompt, TextToken)
	})
}

// AssembleNegative returns the negative prompt, with the surviving catalog tags prepended when enabled.
func AssembleNegative(s objects.FormSettings) string {
	if !s.BaseNegativeCaptions {
		return s.NegativePrompt
	}

	tags := MissingNegativeTags(s)
	if len(tags) == 0 {
		return s.NegativePrompt
	}

	joined := strings.Join(tags, ", ")
	if s.NegativePrompt == "" {
		return joined
	}

	return joined + ", " + s.NegativePrompt
}

// MissingNegativeTags returns the catalog tags not already present in any positive prompt.
// Matching is a case-insensitive substring test over all base and character prompts.
func MissingNegativeTags(s objects.FormSettings) []string {
	texts := append(
		lo.Map(s.BasePrompts, func(p objects.BasePrompt, _ int) string { return p.Text }),
		lo.Map(s.Characters, func(c objects.CharacterPromptEntry, _ int) string { return c.Prompt })...,
	)
	search := strings.ToLower(strings.Join(texts, " "))

	return lo.Filter(BaseNegativeTags, func(tag string, _ int) bool {
		return !strings.Contains(search, strings.ToLower(tag))
	})
}

// v4Fields builds the character caption group, nil when no character is enabled.
func v4Fields(s objects.FormSettings, positive, negative string) *novelai.V4Fields {
	active := s.EnabledCharacters()
	if len(active) == 0 {
		return nil
	}

	center := func(c objects.CharacterPromptEntry) novelai.Center {
		return novelai.Center{X: c.Center.X, Y: c.Center.Y}
	}

	return &novelai.V4Fields{
		ParamsVersion: novelai.ParamsVersion,
		UseCoords:     s.UseCoords,
		V4Prompt: novelai.V4Prompt{
			Caption: novelai.V4Caption{
				BaseCaption: positive,
				CharCaptions: lo.Map(active, func(c objects.CharacterPromptEntry, _ int) novelai.V4CharCaption {
					return novelai.V4CharCaption{CharCaption: c.Prompt, Centers: []novelai.Center{center(c)}}
				}),
			},
			UseCoords: s.UseCoords,
			UseOrder:  true,
		},
		V4NegativePrompt: novelai.V4NegativePrompt{
			Caption: novelai.V4Caption{
				BaseCaption: negative,
				CharCaptions: lo.Map(active, func(c objects.CharacterPromptEntry, _ int) novelai.V4CharCaption {
					return novelai.V4CharCaption{CharCaption: c.UC, Centers: []novelai.Center{center(c)}}
				}),
			},
		},
		CharacterPrompts: lo.Map(active, func(c objects.CharacterPromptEntry, _ int) novelai.CharacterPrompt {
			return novelai.CharacterPrompt{Prompt: c.Prompt, UC: c.UC, Center: center(c), Enabled: c.Enabled}
		}),
	}
}

// BuildRequest builds the text-to-image request for one prompt text and a resolved seed.
func BuildRequest(s objects.FormSettings, text string, seed int64) novelai.GenerationRequest {
	positive := AssemblePositive(s, text)
	negative := AssembleNegative(s)

	params := novelai.NewParameters()
	params.Width = s.Width
	params.Height = s.Height
	params.Scale = s.Scale
	params.Sampler = s.Sampler
	params.Steps = s.Steps
	params.QualityToggle = s.QualityToggle
	params.SM = s.SMEA
	params.SMDyn = s.SMEADyn
	params.CfgRescale = s.CfgRescale
	params.NoiseSchedule = s.NoiseSchedule
	params.Seed = seed
	params.NegativePrompt = negative
	params.V4Fields = v4Fields(s, positive, negative)

	return novelai.GenerationRequest{
		Input:      positive,
		Model:      s.Model,
		Action:     novelai.ActionGenerate,
		Parameters: params,
	}
}

// PromptTexts returns the texts to generate for the current mode.
// Single mode yields the selected prompt, batch mode every selected prompt. Blank texts are skipped.
func PromptTexts(s objects.FormSettings) []string {
	if s.PromptMode != objects.PromptModeBatch {
		p, ok := s.SelectedPrompt()
		if !ok || strings.TrimSpace(p.Text) == "" {
			return nil
		}

		return []string{p.Text}
	}

	selected := lo.Filter(s.BasePrompts, func(p objects.BasePrompt, _ int) bool {
		return p.Selected && strings.TrimSpace(p.Text) != ""
	})

	return lo.Map(selected, func(p objects.BasePrompt, _ int) string { return p.Text })
}

// ResolveSeed returns seed unchanged unless it is 0, in which case random supplies a fresh value.
func ResolveSeed(seed int64, random func() uint32) int64 {
	if seed != 0 {
		return seed
	}

	return int64(random())
}
