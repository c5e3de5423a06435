package nekoai

import (
	"strings"
)

// Metadata describes one image generation. Only Prompt is required;
// every other field falls back to the model-specific default table when
// left at its zero value.
//
// The JSON names match the request body of the demo proxy and the
// original website parameters.
type Metadata struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`

	Model  Model  `json:"model,omitempty"`
	Action Action `json:"action,omitempty"`

	// Either a named preset or explicit dimensions. Explicit values win
	// and are rounded to the nearest multiple of 64.
	ResPreset Resolution `json:"res_preset,omitempty"`
	Width     int        `json:"width,omitempty"`
	Height    int        `json:"height,omitempty"`

	NSamples int `json:"n_samples,omitempty"`

	Steps               int     `json:"steps,omitempty"`
	Scale               float64 `json:"scale,omitempty"`
	CfgRescale          float64 `json:"cfg_rescale,omitempty"`
	DynamicThresholding bool    `json:"dynamic_thresholding,omitempty"`
	Sampler             Sampler `json:"sampler,omitempty"`
	NoiseSchedule       Noise   `json:"noise_schedule,omitempty"`

	// Seed 0 means the backend picks one. Client.GenerateImage replaces
	// a zero seed before building so results stay reproducible;
	// BuildPayload itself never generates randomness.
	Seed           int64 `json:"seed,omitempty"`
	ExtraNoiseSeed int64 `json:"extra_noise_seed,omitempty"`

	// Stream requests progressive delivery of intermediate steps.
	// Only the V4/V4.5 generation supports it.
	Stream bool `json:"stream,omitempty"`

	QualityToggle *bool `json:"quality_toggle,omitempty"` // nil means on
	UCPreset      int   `json:"uc_preset,omitempty"`      // 0 heavy .. 3 none

	// V3 SMEA toggles; AutoSmea is their V4 replacement.
	SMEA     bool `json:"smea,omitempty"`
	SMEADyn  bool `json:"smea_dyn,omitempty"`
	AutoSmea bool `json:"auto_smea,omitempty"`

	// Multi-character prompts, V4/V4.5 only.
	CharacterPrompts []CharacterPrompt `json:"character_prompts,omitempty"`

	// img2img / inpaint inputs, base64-encoded.
	Image    string  `json:"image,omitempty"`
	Strength float64 `json:"strength,omitempty"`
	Noise    float64 `json:"noise,omitempty"`
	Mask     string  `json:"mask,omitempty"`

	ControlnetModel     Controlnet `json:"controlnet_model,omitempty"`
	ControlnetCondition string     `json:"controlnet_condition,omitempty"`
	ControlnetStrength  float64    `json:"controlnet_strength,omitempty"`

	// Vibe transfer parallel lists; all three must have equal length
	// when the weights are given.
	ReferenceImageMultiple                []string  `json:"reference_image_multiple,omitempty"`
	ReferenceInformationExtractedMultiple []float64 `json:"reference_information_extracted_multiple,omitempty"`
	ReferenceStrengthMultiple             []float64 `json:"reference_strength_multiple,omitempty"`

	SkipCfgAboveSigma *int `json:"skip_cfg_above_sigma,omitempty"`
	LegacyUC          bool `json:"legacy_uc,omitempty"`
}

// BuildPayload validates and normalizes the request into the
// backend-ready body. It is pure: no I/O, no randomness, deterministic
// for identical input. The first offending field is reported, checked in
// order: required presence, type/range, cross-field compatibility.
func (m *Metadata) BuildPayload() (*Payload, error) {
	// Required presence.
	if strings.TrimSpace(m.Prompt) == "" {
		return nil, invalidField("prompt", "must not be empty")
	}

	model := m.Model
	if model == "" {
		model = ModelV45
	}
	if !model.Valid() {
		return nil, invalidField("model", "unknown model %q", string(model))
	}
	defaults := modelDefaults[model]

	action := m.Action
	if action == "" {
		action = ActionGenerate
	}
	switch action {
	case ActionGenerate, ActionImg2Img, ActionInpaint:
	default:
		return nil, invalidField("action", "unknown action %q", string(action))
	}

	// Type and range checks, with defaulting for unset fields.
	width, height, err := m.resolveResolution()
	if err != nil {
		return nil, err
	}

	nSamples := m.NSamples
	if nSamples == 0 {
		nSamples = 1
	}
	if nSamples < 0 {
		return nil, invalidField("n_samples", "must be positive")
	}
	if max := maxSamplesForArea(width * height); nSamples > max {
		return nil, invalidField("n_samples", "at most %d samples at %dx%d", max, width, height)
	}

	steps := m.Steps
	if steps == 0 {
		steps = defaults.steps
	}
	if steps < 1 || steps > maxSteps {
		return nil, invalidField("steps", "must be in [1, %d]", maxSteps)
	}

	scale := m.Scale
	if scale == 0 {
		scale = defaults.scale
	}
	if scale < 0 || scale > 10 {
		return nil, invalidField("scale", "must be in (0, 10]")
	}

	if m.CfgRescale < 0 || m.CfgRescale > 1 {
		return nil, invalidField("cfg_rescale", "must be in [0, 1]")
	}

	if m.Seed < 0 || m.Seed > maxSeed {
		return nil, invalidField("seed", "must be in [0, %d]", maxSeed)
	}

	sampler := m.Sampler
	if sampler == "" {
		sampler = defaults.sampler
	}
	if !knownSamplers[sampler] {
		return nil, invalidField("sampler", "unknown sampler %q", string(sampler))
	}
	if !samplerSupported(model, sampler) {
		return nil, invalidField("sampler", "%s is not available for model %s", sampler, model)
	}

	noise := m.NoiseSchedule
	if noise == "" {
		noise = defaults.noise
	}
	if !knownNoises[noise] {
		return nil, invalidField("noise_schedule", "unknown noise schedule %q", string(noise))
	}
	if !noiseSupported(model, noise) {
		return nil, invalidField("noise_schedule", "%s is not available for model %s", noise, model)
	}

	if m.UCPreset < 0 || m.UCPreset > 3 {
		return nil, invalidField("uc_preset", "must be in [0, 3]")
	}

	if m.Strength != 0 && (m.Strength < 0.01 || m.Strength > 0.99) {
		return nil, invalidField("strength", "must be in [0.01, 0.99]")
	}
	if m.Noise < 0 || m.Noise > 0.99 {
		return nil, invalidField("noise", "must be in [0, 0.99]")
	}

	for i, cp := range m.CharacterPrompts {
		if strings.TrimSpace(cp.Prompt) == "" {
			return nil, invalidField("character_prompts", "character %d has an empty prompt", i)
		}
		c := cp.Center
		if (c != PositionCoords{}) && (c.X < 0.1 || c.X > 0.9 || c.Y < 0.1 || c.Y > 0.9) {
			return nil, invalidField("character_prompts", "character %d center out of [0.1, 0.9]", i)
		}
	}

	// Cross-field compatibility.
	if m.Stream && !model.IsV4() {
		return nil, invalidField("stream", "model %s does not support streaming", model)
	}
	if len(m.CharacterPrompts) > 0 && !model.IsV4() {
		return nil, invalidField("character_prompts", "model %s does not support multi-character prompts", model)
	}
	if err := m.validateVibeTransfer(model); err != nil {
		return nil, err
	}
	if action == ActionImg2Img && m.Image == "" {
		return nil, invalidField("image", "required for img2img")
	}
	if action == ActionInpaint && m.Mask == "" {
		return nil, invalidField("mask", "required for inpainting")
	}
	if m.ControlnetModel != "" && model.IsV4() {
		return nil, invalidField("controlnet_model", "control tools are not available for model %s", model)
	}

	return m.assemble(model, action, width, height, nSamples, steps, scale, sampler, noise), nil
}

// resolveResolution applies the preset table or rounds explicit
// dimensions to the nearest accepted multiple. Rounding is idempotent:
// feeding the result back in changes nothing.
func (m *Metadata) resolveResolution() (int, int, error) {
	width, height := m.Width, m.Height
	switch {
	case width == 0 && height == 0:
		preset := m.ResPreset
		if preset == "" {
			preset = ResNormalSquare
		}
		dims, ok := resolutionPresets[preset]
		if !ok {
			return 0, 0, invalidField("res_preset", "unknown preset %q", string(preset))
		}
		width, height = dims[0], dims[1]
	case width <= 0 || height <= 0:
		return 0, 0, invalidField("width", "width and height must both be positive")
	default:
		width = roundDimension(width)
		height = roundDimension(height)
	}

	if area := width * height; area < minPixelArea || area > maxPixelArea {
		return 0, 0, invalidField("width", "total resolution %dx%d outside [%d, %d] px", width, height, minPixelArea, maxPixelArea)
	}
	return width, height, nil
}

// roundDimension snaps to the nearest multiple of 64, never below the
// minimum edge. Nearest, not truncation: 1400 stays 1408, not 1344.
func roundDimension(v int) int {
	r := (v + dimensionStep/2) / dimensionStep * dimensionStep
	if r < dimensionStep {
		r = dimensionStep
	}
	return r
}

func maxSamplesForArea(area int) int {
	switch {
	case area <= 512*704:
		return 8
	case area <= 640*640:
		return 6
	case area <= 1024*3072:
		return 4
	}
	return 1
}

// validateVibeTransfer checks the parallel reference lists. Length
// mismatches are reported before anything else about the feature.
func (m *Metadata) validateVibeTransfer(model Model) error {
	refs := m.ReferenceImageMultiple
	if len(refs) == 0 {
		if len(m.ReferenceInformationExtractedMultiple) > 0 || len(m.ReferenceStrengthMultiple) > 0 {
			return invalidField("reference_image_multiple", "vibe weights given without reference images")
		}
		return nil
	}
	if w := m.ReferenceInformationExtractedMultiple; w != nil && len(w) != len(refs) {
		return invalidField("reference_information_extracted_multiple",
			"length %d does not match %d reference images", len(w), len(refs))
	}
	if s := m.ReferenceStrengthMultiple; s != nil && len(s) != len(refs) {
		return invalidField("reference_strength_multiple",
			"length %d does not match %d reference images", len(s), len(refs))
	}
	if !vibeCapable[model] {
		return invalidField("reference_image_multiple", "model %s does not support vibe transfer", model)
	}
	for i, w := range m.ReferenceInformationExtractedMultiple {
		if w < 0.01 || w > 1 {
			return invalidField("reference_information_extracted_multiple", "weight %d out of [0.01, 1]", i)
		}
	}
	for i, s := range m.ReferenceStrengthMultiple {
		if s < 0.01 || s > 1 {
			return invalidField("reference_strength_multiple", "strength %d out of [0.01, 1]", i)
		}
	}
	return nil
}

// assemble builds the final payload from validated inputs. No failures
// past this point.
func (m *Metadata) assemble(model Model, action Action, width, height, nSamples, steps int, scale float64, sampler Sampler, noise Noise) *Payload {
	qualityOn := m.QualityToggle == nil || *m.QualityToggle

	prompt := m.Prompt
	if qualityOn {
		prompt += qualityTags(model)
	}
	prompt = dedupeTags(prompt)

	negative := m.NegativePrompt
	if uc := ucPresetTags(model, m.UCPreset); uc != "" {
		negative = uc + ", " + negative
	}
	negative = dedupeTags(negative)

	params := Parameters{
		ParamsVersion:       3,
		Width:               width,
		Height:              height,
		NSamples:            nSamples,
		Steps:               steps,
		Scale:               scale,
		DynamicThresholding: m.DynamicThresholding,
		Seed:                m.Seed,
		ExtraNoiseSeed:      m.ExtraNoiseSeed,
		Sampler:             sampler,
		CfgRescale:          m.CfgRescale,
		NoiseSchedule:       noise,
		SkipCfgAboveSigma:   m.SkipCfgAboveSigma,
		NegativePrompt:      negative,
		QualityToggle:       qualityOn,
		UCPreset:            m.UCPreset,
		AddOriginalImage:    true,
		Legacy:              false,
		LegacyV3Extend:      false,
	}

	if !model.IsV4() {
		params.ParamsVersion = 1
		sm, smDyn := m.SMEA, m.SMEADyn
		params.SM = &sm
		params.SMDyn = &smDyn
	}

	switch action {
	case ActionImg2Img, ActionInpaint:
		params.Image = m.Image
		params.Strength = m.Strength
		if params.Strength == 0 {
			params.Strength = 0.3
		}
		params.Noise = m.Noise
		params.Mask = m.Mask
	}

	if m.ControlnetModel != "" {
		params.ControlnetModel = m.ControlnetModel
		params.ControlnetCondition = m.ControlnetCondition
		params.ControlnetStrength = m.ControlnetStrength
		if params.ControlnetStrength == 0 {
			params.ControlnetStrength = 1
		}
	}

	if refs := m.ReferenceImageMultiple; len(refs) > 0 {
		params.ReferenceImageMultiple = append([]string(nil), refs...)
		params.ReferenceInformationExtractedMultiple = fillWeights(m.ReferenceInformationExtractedMultiple, len(refs), 1.0)
		params.ReferenceStrengthMultiple = fillWeights(m.ReferenceStrengthMultiple, len(refs), 0.6)
	}

	if model.IsV4() {
		m.assembleV4(&params, model, action, sampler, prompt, negative)
	}

	if model == ModelV45 || model == ModelV45Inp {
		one := 1
		params.InpaintImg2ImgStrength = &one
	}

	return &Payload{
		Input:      prompt,
		Model:      model,
		Action:     action,
		Parameters: params,
	}
}

// assembleV4 adds the structured caption formats and the V4-only knobs.
func (m *Metadata) assembleV4(params *Parameters, model Model, action Action, sampler Sampler, prompt, negative string) {
	params.AutoSmea = m.AutoSmea
	params.LegacyUC = m.LegacyUC
	params.NormalizeReferenceStrengthMultiple = true

	if action == ActionGenerate {
		// The stream endpoint always frames v4 responses as msgpack.
		params.Stream = "msgpack"

		if sampler == SamplerEulerAnc {
			f, t := false, true
			params.DeliberateEulerAncestralBug = &f
			params.PreferBrownian = &t
		}
	}

	if action == ActionImg2Img {
		return
	}

	chars := make([]CharacterPrompt, 0, len(m.CharacterPrompts))
	captions := make([]characterCaption, 0, len(m.CharacterPrompts))
	negCaptions := make([]characterCaption, 0, len(m.CharacterPrompts))
	useCoords := false
	for _, cp := range m.CharacterPrompts {
		if cp.Enabled != nil && !*cp.Enabled {
			continue
		}
		if cp.UC == "" {
			cp.UC = "lowres, aliasing,"
		}
		if (cp.Center == PositionCoords{}) {
			cp.Center = PositionCoords{X: 0.5, Y: 0.5}
		}
		cp.Prompt = dedupeTags(cp.Prompt)
		cp.UC = dedupeTags(cp.UC)
		if cp.Center.X != 0.5 || cp.Center.Y != 0.5 {
			useCoords = true
		}
		chars = append(chars, cp)
		captions = append(captions, characterCaption{CharCaption: cp.Prompt, Centers: []PositionCoords{cp.Center}})
		negCaptions = append(negCaptions, characterCaption{CharCaption: cp.UC, Centers: []PositionCoords{cp.Center}})
	}

	params.CharacterPrompts = chars
	params.UseCoords = useCoords
	params.V4Prompt = &v4Prompt{
		Caption:   v4Caption{BaseCaption: prompt, CharCaptions: captions},
		UseCoords: useCoords,
		UseOrder:  true,
	}
	params.V4NegativePrompt = &v4NegativePrompt{
		Caption:  v4Caption{BaseCaption: negative, CharCaptions: negCaptions},
		LegacyUC: m.LegacyUC,
	}
}

func fillWeights(w []float64, n int, def float64) []float64 {
	if w != nil {
		return append([]float64(nil), w...)
	}
	filled := make([]float64, n)
	for i := range filled {
		filled[i] = def
	}
	return filled
}

// dedupeTags removes repeated comma-separated tags, case-insensitively,
// keeping first occurrence and the ", " delimiter convention.
func dedupeTags(prompt string) string {
	if prompt == "" {
		return prompt
	}
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(prompt, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return strings.Join(tags, ", ")
}
