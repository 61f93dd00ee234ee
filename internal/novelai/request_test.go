package novelai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParameters_GroupsOmittedWhenNil(t *testing.T) {
	req := GenerationRequest{
		Input:      "a cat",
		Model:      ModelV45Full,
		Action:     ActionGenerate,
		Parameters: NewParameters(),
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	params := gjson.GetBytes(data, "parameters")
	for _, key := range []string{"params_version", "use_coords", "v4_prompt", "v4_negative_prompt", "characterPrompts", "strength", "image", "extra_noise_seed"} {
		assert.False(t, params.Get(key).Exists(), key)
	}

	assert.Equal(t, int64(1), params.Get("n_samples").Int())
	assert.InDelta(t, DefaultSkipCfgAboveSigma, params.Get("skip_cfg_above_sigma").Float(), 1e-12)
	assert.True(t, params.Get("reference_image_multiple").IsArray())
}

func TestParameters_GroupsFlattened(t *testing.T) {
	params := NewParameters()
	params.V4Fields = &V4Fields{
		ParamsVersion: ParamsVersion,
		UseCoords:     true,
		V4Prompt: V4Prompt{
			Caption:  V4Caption{BaseCaption: "a cat", CharCaptions: []V4CharCaption{{CharCaption: "girl", Centers: []Center{{X: 0.5, Y: 0.5}}}}},
			UseOrder: true,
		},
	}
	params.Img2ImgFields = NewImg2ImgFields()
	params.Strength = 0.5

	data, err := json.Marshal(GenerationRequest{Action: ActionImg2Img, Parameters: params})
	require.NoError(t, err)

	p := gjson.GetBytes(data, "parameters")
	assert.Equal(t, int64(3), p.Get("params_version").Int())
	assert.Equal(t, "a cat", p.Get("v4_prompt.caption.base_caption").String())
	assert.Equal(t, "girl", p.Get("v4_prompt.caption.char_captions.0.char_caption").String())
	assert.InDelta(t, 0.5, p.Get("strength").Float(), 1e-12)
	assert.True(t, p.Get("prefer_brownian").Bool())
	assert.True(t, p.Get("normalize_reference_strength_multiple").Bool())

	var decoded GenerationRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Parameters.V4Fields)
	require.NotNil(t, decoded.Parameters.Img2ImgFields)
	assert.Equal(t, ActionImg2Img, decoded.Action)
}

func TestFindSizePreset(t *testing.T) {
	preset, ok := FindSizePreset("lg-portrait")
	require.True(t, ok)
	assert.Equal(t, 1024, preset.Width)
	assert.Equal(t, 1536, preset.Height)

	_, ok = FindSizePreset("banner")
	assert.False(t, ok)

	assert.True(t, IsKnown(Samplers, "k_dpmpp_2m"))
	assert.False(t, IsKnown(Models, "nai-diffusion-2"))
}
