package nekoai

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload_ResolutionPresets(t *testing.T) {
	tests := []struct {
		preset Resolution
		width  int
		height int
	}{
		{ResSmallPortrait, 512, 768},
		{ResNormalPortrait, 832, 1216},
		{ResNormalLandscape, 1216, 832},
		{ResNormalSquare, 1024, 1024},
		{ResLargeSquare, 1472, 1472},
		{ResWallpaperPortrait, 1088, 1920},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			md := &Metadata{Prompt: "1girl", ResPreset: tt.preset}
			p, err := md.BuildPayload()
			require.NoError(t, err)
			assert.Equal(t, tt.width, p.Parameters.Width)
			assert.Equal(t, tt.height, p.Parameters.Height)
		})
	}
}

func TestBuildPayload_DimensionRounding(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"already aligned", 1024, 1024},
		{"rounds up to nearest", 1000, 1024},
		{"rounds down to nearest", 1040, 1024},
		{"nearest not truncation", 1400, 1408},
		{"midpoint rounds up", 1056, 1088},
		{"tiny input clamps to minimum", 10, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := &Metadata{Prompt: "1girl", Width: tt.in, Height: 1024}
			p, err := md.BuildPayload()
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Parameters.Width)
		})
	}
}

func TestBuildPayload_RoundingIdempotent(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Width: 1400, Height: 900}
	p1, err := md.BuildPayload()
	require.NoError(t, err)

	md2 := &Metadata{Prompt: "1girl", Width: p1.Parameters.Width, Height: p1.Parameters.Height}
	p2, err := md2.BuildPayload()
	require.NoError(t, err)

	assert.Equal(t, p1.Parameters.Width, p2.Parameters.Width)
	assert.Equal(t, p1.Parameters.Height, p2.Parameters.Height)
}

func TestBuildPayload_Deterministic(t *testing.T) {
	md := &Metadata{Prompt: "1girl, blue hair", Model: ModelV45, Seed: 42, Width: 1000, Height: 1000}
	p1, err := md.BuildPayload()
	require.NoError(t, err)
	p2, err := md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestBuildPayload_RequiredPrompt(t *testing.T) {
	md := &Metadata{Prompt: "   "}
	_, err := md.BuildPayload()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "prompt", vErr.Field)
}

func TestBuildPayload_RangeChecks(t *testing.T) {
	tests := []struct {
		name  string
		md    Metadata
		field string
	}{
		{"steps above max", Metadata{Prompt: "x", Steps: 51}, "steps"},
		{"steps below min", Metadata{Prompt: "x", Steps: -1}, "steps"},
		{"scale above max", Metadata{Prompt: "x", Scale: 11}, "scale"},
		{"cfg rescale above max", Metadata{Prompt: "x", CfgRescale: 1.5}, "cfg_rescale"},
		{"seed above max", Metadata{Prompt: "x", Seed: 4294967289}, "seed"},
		{"uc preset above max", Metadata{Prompt: "x", UCPreset: 4}, "uc_preset"},
		{"area above max", Metadata{Prompt: "x", Width: 2048, Height: 2048}, "width"},
		{"negative samples", Metadata{Prompt: "x", NSamples: -1}, "n_samples"},
		{"unknown preset", Metadata{Prompt: "x", ResPreset: "huge_square"}, "res_preset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.md.BuildPayload()
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestBuildPayload_StreamingModelCompatibility(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV3, Stream: true}
	_, err := md.BuildPayload()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "stream", vErr.Field)

	// Same request on a V4.5 model passes.
	md.Model = ModelV45
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, "msgpack", p.Parameters.Stream)
}

func TestBuildPayload_DefaultSamplerFill(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV45}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, SamplerEulerAnc, p.Parameters.Sampler)
	assert.Equal(t, NoiseKarras, p.Parameters.NoiseSchedule)
	assert.Equal(t, 28, p.Parameters.Steps)
	assert.Equal(t, 5.0, p.Parameters.Scale)
}

func TestBuildPayload_IncompatibleSampler(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV45, Sampler: SamplerDDIMV3}
	_, err := md.BuildPayload()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sampler", vErr.Field)

	// ddim_v3 is fine on the V3 generation.
	md.Model = ModelV3
	_, err = md.BuildPayload()
	require.NoError(t, err)
}

func TestBuildPayload_NativeNoiseRetired(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV4Cur, NoiseSchedule: NoiseNative}
	_, err := md.BuildPayload()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "noise_schedule", vErr.Field)

	md.Model = ModelV4
	_, err = md.BuildPayload()
	require.NoError(t, err)
}

func TestBuildPayload_VibeLengthMismatchFailsFirst(t *testing.T) {
	// The model is not even vibe-capable, but the length mismatch must
	// be reported before the capability check.
	md := &Metadata{
		Prompt:                                "1girl",
		Model:                                 ModelV45,
		ReferenceImageMultiple:                []string{"a", "b", "c"},
		ReferenceInformationExtractedMultiple: []float64{1.0},
	}
	_, err := md.BuildPayload()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reference_information_extracted_multiple", vErr.Field)

	// With matching lengths the capability failure surfaces.
	md.ReferenceInformationExtractedMultiple = []float64{1.0, 1.0, 1.0}
	_, err = md.BuildPayload()
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reference_image_multiple", vErr.Field)
}

func TestBuildPayload_VibeWeightDefaults(t *testing.T) {
	md := &Metadata{
		Prompt:                 "1girl",
		Model:                  ModelV3,
		ReferenceImageMultiple: []string{"a", "b"},
	}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 1.0}, p.Parameters.ReferenceInformationExtractedMultiple)
	assert.Equal(t, []float64{0.6, 0.6}, p.Parameters.ReferenceStrengthMultiple)
}

func TestBuildPayload_CharacterPrompts(t *testing.T) {
	md := &Metadata{
		Prompt: "2girls",
		Model:  ModelV45,
		CharacterPrompts: []CharacterPrompt{
			{Prompt: "girl, red hair", Center: PositionCoords{X: 0.3, Y: 0.3}},
			{Prompt: "girl, blue hair", Center: PositionCoords{X: 0.7, Y: 0.7}},
		},
	}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	require.NotNil(t, p.Parameters.V4Prompt)
	require.Len(t, p.Parameters.V4Prompt.Caption.CharCaptions, 2)
	assert.True(t, p.Parameters.UseCoords)
	assert.Equal(t, "girl, red hair", p.Parameters.V4Prompt.Caption.CharCaptions[0].CharCaption)

	// Per-character negative prompts get the aliasing default.
	require.NotNil(t, p.Parameters.V4NegativePrompt)
	assert.Contains(t, p.Parameters.V4NegativePrompt.Caption.CharCaptions[0].CharCaption, "lowres")
}

func TestBuildPayload_CharacterPromptsRejectedOnV3(t *testing.T) {
	md := &Metadata{
		Prompt:           "2girls",
		Model:            ModelV3,
		CharacterPrompts: []CharacterPrompt{{Prompt: "girl"}},
	}
	_, err := md.BuildPayload()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "character_prompts", vErr.Field)
}

func TestBuildPayload_CharacterCoordsRange(t *testing.T) {
	md := &Metadata{
		Prompt: "1girl",
		Model:  ModelV45,
		CharacterPrompts: []CharacterPrompt{
			{Prompt: "girl", Center: PositionCoords{X: 0.95, Y: 0.5}},
		},
	}
	_, err := md.BuildPayload()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildPayload_ActionRequirements(t *testing.T) {
	tests := []struct {
		name  string
		md    Metadata
		field string
	}{
		{"img2img without image", Metadata{Prompt: "x", Action: ActionImg2Img}, "image"},
		{"infill without mask", Metadata{Prompt: "x", Model: ModelV3Inp, Action: ActionInpaint}, "mask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.md.BuildPayload()
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestBuildPayload_QualityTags(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV45}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p.Input, "very aesthetic, masterpiece, no text"))

	off := false
	md.QualityToggle = &off
	p, err = md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, "1girl", p.Input)
}

func TestBuildPayload_UCPresetPrepended(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV45, NegativePrompt: "extra hands"}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.Parameters.NegativePrompt, "nsfw, lowres"))
	assert.True(t, strings.HasSuffix(p.Parameters.NegativePrompt, "extra hands"))
}

func TestBuildPayload_TagDeduplication(t *testing.T) {
	md := &Metadata{Prompt: "1girl, blue hair, 1girl, Blue Hair", Model: ModelV45}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.ToLower(p.Input), "1girl"))
	assert.Equal(t, 1, strings.Count(strings.ToLower(p.Input), "blue hair"))
}

func TestBuildPayload_SampleLimitsByArea(t *testing.T) {
	tests := []struct {
		name     string
		preset   Resolution
		nSamples int
		ok       bool
	}{
		{"8 at small portrait", ResSmallPortrait, 8, true},
		{"9 at small portrait", ResSmallPortrait, 9, false},
		{"4 at normal square", ResNormalSquare, 4, true},
		{"5 at normal square", ResNormalSquare, 5, false},
		{"5 at wallpaper", ResWallpaperPortrait, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := &Metadata{Prompt: "x", ResPreset: tt.preset, NSamples: tt.nSamples}
			_, err := md.BuildPayload()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestBuildPayload_V3Specifics(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV3, SMEA: true}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, 1, p.Parameters.ParamsVersion)
	require.NotNil(t, p.Parameters.SM)
	assert.True(t, *p.Parameters.SM)
	assert.Nil(t, p.Parameters.V4Prompt)
	assert.Empty(t, p.Parameters.Stream)
}

func TestBuildPayload_EulerAncestralBrownian(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV45}
	p, err := md.BuildPayload()
	require.NoError(t, err)
	require.NotNil(t, p.Parameters.PreferBrownian)
	assert.True(t, *p.Parameters.PreferBrownian)
	require.NotNil(t, p.Parameters.DeliberateEulerAncestralBug)
	assert.False(t, *p.Parameters.DeliberateEulerAncestralBug)

	md.Sampler = SamplerEuler
	p, err = md.BuildPayload()
	require.NoError(t, err)
	assert.Nil(t, p.Parameters.PreferBrownian)
}

func TestBuildPayload_ControlnetRejectedOnV4(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: ModelV45, ControlnetModel: ControlnetScribbler}
	_, err := md.BuildPayload()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "controlnet_model", vErr.Field)
}

func TestBuildPayload_UnknownModel(t *testing.T) {
	md := &Metadata{Prompt: "1girl", Model: "nai-diffusion-99"}
	_, err := md.BuildPayload()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}
