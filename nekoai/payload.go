package nekoai

// PositionCoords places a character on the canvas. Both axes are
// normalized to [0.1, 0.9]; the zero value means "let the backend decide"
// and resolves to the center.
type PositionCoords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CharacterPrompt is one character in a multi-character generation
// (V4/V4.5 models only).
type CharacterPrompt struct {
	Prompt  string         `json:"prompt"`
	UC      string         `json:"uc"`
	Center  PositionCoords `json:"center"`
	Enabled *bool          `json:"enabled,omitempty"`
}

// characterCaption is the per-character entry inside the v4 caption
// structures.
type characterCaption struct {
	CharCaption string           `json:"char_caption"`
	Centers     []PositionCoords `json:"centers"`
}

type v4Caption struct {
	BaseCaption  string             `json:"base_caption"`
	CharCaptions []characterCaption `json:"char_captions"`
}

type v4Prompt struct {
	Caption   v4Caption `json:"caption"`
	UseCoords bool      `json:"use_coords"`
	UseOrder  bool      `json:"use_order"`
}

type v4NegativePrompt struct {
	Caption  v4Caption `json:"caption"`
	LegacyUC bool      `json:"legacy_uc"`
}

// Parameters is the `parameters` object of the request body, named
// exactly as the backend expects. Populated only by BuildPayload.
type Parameters struct {
	ParamsVersion int `json:"params_version"`

	Width    int `json:"width"`
	Height   int `json:"height"`
	NSamples int `json:"n_samples"`

	Steps               int     `json:"steps"`
	Scale               float64 `json:"scale"`
	DynamicThresholding bool    `json:"dynamic_thresholding"`
	Seed                int64   `json:"seed"`
	ExtraNoiseSeed      int64   `json:"extra_noise_seed,omitempty"`
	Sampler             Sampler `json:"sampler"`
	CfgRescale          float64 `json:"cfg_rescale"`
	NoiseSchedule       Noise   `json:"noise_schedule"`
	SkipCfgAboveSigma   *int    `json:"skip_cfg_above_sigma,omitempty"`

	NegativePrompt string `json:"negative_prompt"`
	QualityToggle  bool   `json:"qualityToggle"`
	UCPreset       int    `json:"ucPreset"`

	// V3 SMEA flags, absent for the V4 generation.
	SM    *bool `json:"sm,omitempty"`
	SMDyn *bool `json:"sm_dyn,omitempty"`

	// img2img / inpaint
	Image               string     `json:"image,omitempty"`
	Strength            float64    `json:"strength,omitempty"`
	Noise               float64    `json:"noise,omitempty"`
	Mask                string     `json:"mask,omitempty"`
	AddOriginalImage    bool       `json:"add_original_image"`
	ControlnetModel     Controlnet `json:"controlnet_model,omitempty"`
	ControlnetCondition string     `json:"controlnet_condition,omitempty"`
	ControlnetStrength  float64    `json:"controlnet_strength,omitempty"`

	// Vibe transfer parallel lists.
	ReferenceImageMultiple                []string  `json:"reference_image_multiple,omitempty"`
	ReferenceInformationExtractedMultiple []float64 `json:"reference_information_extracted_multiple,omitempty"`
	ReferenceStrengthMultiple             []float64 `json:"reference_strength_multiple,omitempty"`

	// V4/V4.5 only.
	AutoSmea                           bool              `json:"autoSmea,omitempty"`
	CharacterPrompts                   []CharacterPrompt `json:"characterPrompts,omitempty"`
	V4Prompt                           *v4Prompt         `json:"v4_prompt,omitempty"`
	V4NegativePrompt                   *v4NegativePrompt `json:"v4_negative_prompt,omitempty"`
	UseCoords                          bool              `json:"use_coords"`
	LegacyUC                           bool              `json:"legacy_uc"`
	NormalizeReferenceStrengthMultiple bool              `json:"normalize_reference_strength_multiple"`
	DeliberateEulerAncestralBug        *bool             `json:"deliberate_euler_ancestral_bug,omitempty"`
	PreferBrownian                     *bool             `json:"prefer_brownian,omitempty"`
	InpaintImg2ImgStrength             *int              `json:"inpaintImg2ImgStrength,omitempty"`

	Legacy         bool   `json:"legacy"`
	LegacyV3Extend bool   `json:"legacy_v3_extend"`
	Stream         string `json:"stream,omitempty"`
}

// Payload is the backend-ready request body. Treat it as immutable once
// built; ownership passes to the transport when sent.
type Payload struct {
	Input      string     `json:"input"`
	Model      Model      `json:"model"`
	Action     Action     `json:"action"`
	Parameters Parameters `json:"parameters"`
}
