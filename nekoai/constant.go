package nekoai

// HostWeb serves image generation, HostAPI serves account endpoints.
const (
	HostWeb = "https://image.novelai.net"
	HostAPI = "https://api.novelai.net"
)

const (
	endpointLogin       = "/user/login"
	endpointImage       = "/ai/generate-image"
	endpointImageStream = "/ai/generate-image-stream"
	endpointDirector    = "/ai/augment-image"
	endpointEncodeVibe  = "/ai/encode-vibe"
)

// Model identifies a NovelAI diffusion model.
type Model string

const (
	ModelV3    Model = "nai-diffusion-3"
	ModelV3Inp Model = "nai-diffusion-3-inpainting"

	ModelV4    Model = "nai-diffusion-4-full"
	ModelV4Inp Model = "nai-diffusion-4-full-inpainting"

	ModelV4Cur    Model = "nai-diffusion-4-curated-preview"
	ModelV4CurInp Model = "nai-diffusion-4-curated-inpainting"

	ModelV45    Model = "nai-diffusion-4-5-full"
	ModelV45Inp Model = "nai-diffusion-4-5-full-inpainting"

	ModelV45Cur    Model = "nai-diffusion-4-5-curated"
	ModelV45CurInp Model = "nai-diffusion-4-5-curated-inpainting"

	ModelFurry    Model = "nai-diffusion-furry-3"
	ModelFurryInp Model = "nai-diffusion-furry-3-inpainting"
)

// IsV4 reports whether the model belongs to the V4/V4.5 generation.
// Only these models understand the v4 prompt format and the msgpack
// streaming endpoint.
func (m Model) IsV4() bool {
	switch m {
	case ModelV4, ModelV4Inp, ModelV4Cur, ModelV4CurInp,
		ModelV45, ModelV45Inp, ModelV45Cur, ModelV45CurInp:
		return true
	}
	return false
}

// Valid reports whether m is a known model identifier.
func (m Model) Valid() bool {
	_, ok := modelDefaults[m]
	return ok
}

// Models returns all known model identifiers.
func Models() []Model {
	return []Model{
		ModelV3, ModelV3Inp,
		ModelV4, ModelV4Inp,
		ModelV4Cur, ModelV4CurInp,
		ModelV45, ModelV45Inp,
		ModelV45Cur, ModelV45CurInp,
		ModelFurry, ModelFurryInp,
	}
}

// Action selects the generation mode.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionInpaint  Action = "infill"
	ActionImg2Img  Action = "img2img"
)

// Sampler identifies a sampling algorithm.
type Sampler string

const (
	SamplerEuler    Sampler = "k_euler"
	SamplerEulerAnc Sampler = "k_euler_ancestral"
	SamplerDPM2SAnc Sampler = "k_dpmpp_2s_ancestral"
	SamplerDPM2M    Sampler = "k_dpmpp_2m"
	SamplerDPM2MSDE Sampler = "k_dpmpp_2m_sde"
	SamplerDPMSDE   Sampler = "k_dpmpp_sde"
	SamplerDDIMV3   Sampler = "ddim_v3"
)

// Noise identifies a noise schedule.
type Noise string

const (
	NoiseNative          Noise = "native"
	NoiseKarras          Noise = "karras"
	NoiseExponential     Noise = "exponential"
	NoisePolyexponential Noise = "polyexponential"
)

// Controlnet identifies a control tool (V3 generation only).
type Controlnet string

const (
	ControlnetPaletteSwap     Controlnet = "hed"
	ControlnetFormLock        Controlnet = "midas"
	ControlnetScribbler       Controlnet = "fake_scribble"
	ControlnetBuildingControl Controlnet = "mlsd"
	ControlnetLandscaper      Controlnet = "uniformer"
)

// Resolution is a named width/height preset accepted by the backend.
type Resolution string

const (
	ResSmallPortrait      Resolution = "small_portrait"
	ResSmallLandscape     Resolution = "small_landscape"
	ResSmallSquare        Resolution = "small_square"
	ResNormalPortrait     Resolution = "normal_portrait"
	ResNormalLandscape    Resolution = "normal_landscape"
	ResNormalSquare       Resolution = "normal_square"
	ResLargePortrait      Resolution = "large_portrait"
	ResLargeLandscape     Resolution = "large_landscape"
	ResLargeSquare        Resolution = "large_square"
	ResWallpaperPortrait  Resolution = "wallpaper_portrait"
	ResWallpaperLandscape Resolution = "wallpaper_landscape"
)

var resolutionPresets = map[Resolution][2]int{
	ResSmallPortrait:      {512, 768},
	ResSmallLandscape:     {768, 512},
	ResSmallSquare:        {640, 640},
	ResNormalPortrait:     {832, 1216},
	ResNormalLandscape:    {1216, 832},
	ResNormalSquare:       {1024, 1024},
	ResLargePortrait:      {1024, 1536},
	ResLargeLandscape:     {1536, 1024},
	ResLargeSquare:        {1472, 1472},
	ResWallpaperPortrait:  {1088, 1920},
	ResWallpaperLandscape: {1920, 1088},
}

const (
	// Dimensions are rounded to the nearest multiple of this granularity.
	dimensionStep = 64

	// Total pixel area accepted by the backend.
	minPixelArea = 64 * 64
	maxPixelArea = 3047424

	maxSteps = 50
	maxSeed  = 4294967295 - 7
)

// defaults keyed by model. Sampler and steps are uniform across
// generations today, scale and noise schedule are not.
type generationDefaults struct {
	sampler Sampler
	steps   int
	scale   float64
	noise   Noise
}

var modelDefaults = map[Model]generationDefaults{
	ModelV3:        {SamplerEulerAnc, 28, 6.0, NoiseNative},
	ModelV3Inp:     {SamplerEulerAnc, 28, 6.0, NoiseNative},
	ModelFurry:     {SamplerEulerAnc, 28, 6.0, NoiseNative},
	ModelFurryInp:  {SamplerEulerAnc, 28, 6.0, NoiseNative},
	ModelV4:        {SamplerEulerAnc, 28, 6.0, NoiseKarras},
	ModelV4Inp:     {SamplerEulerAnc, 28, 6.0, NoiseKarras},
	ModelV4Cur:     {SamplerEulerAnc, 28, 6.0, NoiseKarras},
	ModelV4CurInp:  {SamplerEulerAnc, 28, 6.0, NoiseKarras},
	ModelV45:       {SamplerEulerAnc, 28, 5.0, NoiseKarras},
	ModelV45Inp:    {SamplerEulerAnc, 28, 5.0, NoiseKarras},
	ModelV45Cur:    {SamplerEulerAnc, 28, 5.0, NoiseKarras},
	ModelV45CurInp: {SamplerEulerAnc, 28, 5.0, NoiseKarras},
}

// ddim_v3 never shipped for the V4 generation.
var v3OnlySamplers = map[Sampler]bool{
	SamplerDDIMV3: true,
}

var knownSamplers = map[Sampler]bool{
	SamplerEuler:    true,
	SamplerEulerAnc: true,
	SamplerDPM2SAnc: true,
	SamplerDPM2M:    true,
	SamplerDPM2MSDE: true,
	SamplerDPMSDE:   true,
	SamplerDDIMV3:   true,
}

// The native schedule was retired starting with the V4 curated models.
var nativeNoiseModels = map[Model]bool{
	ModelV3:       true,
	ModelV3Inp:    true,
	ModelFurry:    true,
	ModelFurryInp: true,
	ModelV4:       true,
	ModelV4Inp:    true,
}

var knownNoises = map[Noise]bool{
	NoiseNative:          true,
	NoiseKarras:          true,
	NoiseExponential:     true,
	NoisePolyexponential: true,
}

// samplerSupported reports whether the sampler exists for the model's
// generation. Compatibility is a static table, never inferred.
func samplerSupported(m Model, s Sampler) bool {
	if !knownSamplers[s] {
		return false
	}
	if v3OnlySamplers[s] && m.IsV4() {
		return false
	}
	return true
}

// noiseSupported reports whether the noise schedule is available for the
// model.
func noiseSupported(m Model, n Noise) bool {
	if !knownNoises[n] {
		return false
	}
	if n == NoiseNative && !nativeNoiseModels[m] {
		return false
	}
	return true
}

// vibeCapable lists models accepting vibe transfer references: the V3
// generation takes raw reference images, the V4 curated preview takes
// encoded vibe tokens.
var vibeCapable = map[Model]bool{
	ModelV3:       true,
	ModelV3Inp:    true,
	ModelFurry:    true,
	ModelFurryInp: true,
	ModelV4Cur:    true,
}

var defaultHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.5",
	"Content-Type":    "application/json",
	"Origin":          "https://novelai.net",
	"Referer":         "https://novelai.net",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:138.0) Gecko/20100101 Firefox/138.0",
}
