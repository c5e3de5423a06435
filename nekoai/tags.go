package nekoai

// qualityTags returns the per-model suffix appended to the prompt when
// the quality toggle is on. The strings track what the official web UI
// appends for each model.
func qualityTags(m Model) string {
	switch m {
	case ModelV45, ModelV45Inp:
		return ", very aesthetic, masterpiece, no text"
	case ModelV45Cur, ModelV45CurInp:
		return ", location, masterpiece, no text, -0.8::feet::, rating:general"
	case ModelV4, ModelV4Inp:
		return ", no text, best quality, very aesthetic, absurdres"
	case ModelV4Cur, ModelV4CurInp:
		return ", rating:general, amazing quality, very aesthetic, absurdres"
	case ModelV3, ModelV3Inp:
		return ", best quality, amazing quality, very aesthetic, absurdres"
	case ModelFurry, ModelFurryInp:
		return ", {best quality}, {amazing quality}"
	}
	return ""
}

// ucPresetTags returns the undesired-content block prepended to the
// negative prompt. Preset 0 is the heaviest, 3 adds nothing. Presets a
// model does not define fall through to the empty string.
func ucPresetTags(m Model, preset int) string {
	switch m {
	case ModelV45, ModelV45Inp:
		switch preset {
		case 0:
			return "nsfw, lowres, artistic error, film grain, scan artifacts, worst quality, bad quality, jpeg artifacts, very displeasing, chromatic aberration, dithering, halftone, screentone, multiple views, logo, too many watermarks, negative space, blank page"
		case 1:
			return "nsfw, lowres, artistic error, scan artifacts, worst quality, bad quality, jpeg artifacts, multiple views, very displeasing, too many watermarks, negative space, blank page"
		case 2:
			return "nsfw, {worst quality}, distracting watermark, unfinished, bad quality, {widescreen}, upscale, {sequence}, {{grandfathered content}}, blurred foreground, chromatic aberration, sketch, everyone, [sketch background], simple, [flat colors], ych (character), outline, multiple scenes, [[horror (theme)]], comic"
		case 3:
			return "nsfw, lowres, artistic error, film grain, scan artifacts, worst quality, bad quality, jpeg artifacts, very displeasing, chromatic aberration, dithering, halftone, screentone, multiple views, logo, too many watermarks, negative space, blank page, @_@, mismatched pupils, glowing eyes, bad anatomy"
		}
	case ModelV45Cur, ModelV45CurInp:
		switch preset {
		case 0:
			return "blurry, lowres, upscaled, artistic error, film grain, scan artifacts, worst quality, bad quality, jpeg artifacts, very displeasing, chromatic aberration, halftone, multiple views, logo, too many watermarks, negative space, blank page"
		case 1:
			return "blurry, lowres, upscaled, artistic error, scan artifacts, jpeg artifacts, logo, too many watermarks, negative space, blank page"
		case 2:
			return "blurry, lowres, upscaled, artistic error, film grain, scan artifacts, bad anatomy, bad hands, worst quality, bad quality, jpeg artifacts, very displeasing, chromatic aberration, halftone, multiple views, logo, too many watermarks, @_@, mismatched pupils, glowing eyes, negative space, blank page"
		}
	case ModelV4, ModelV4Inp:
		switch preset {
		case 0:
			return "blurry, lowres, error, film grain, scan artifacts, worst quality, bad quality, jpeg artifacts, very displeasing, chromatic aberration, multiple views, logo, too many watermarks"
		case 1:
			return "blurry, lowres, error, worst quality, bad quality, jpeg artifacts, very displeasing"
		}
	case ModelV4Cur, ModelV4CurInp:
		switch preset {
		case 0:
			return "blurry, lowres, error, film grain, scan artifacts, worst quality, bad quality, jpeg artifacts, very displeasing, chromatic aberration, logo, dated, signature, multiple views, gigantic breasts"
		case 1:
			return "blurry, lowres, error, worst quality, bad quality, jpeg artifacts, very displeasing, logo, dated, signature"
		}
	case ModelV3, ModelV3Inp:
		switch preset {
		case 0:
			return "lowres, {bad}, error, fewer, extra, missing, worst quality, jpeg artifacts, bad quality, watermark, unfinished, displeasing, chromatic aberration, signature, extra digits, artistic error, username, scan, [abstract]"
		case 1:
			return "lowres, jpeg artifacts, worst quality, watermark, blurry, very displeasing"
		case 2:
			return "lowres, {bad}, error, fewer, extra, missing, worst quality, jpeg artifacts, bad quality, watermark, unfinished, displeasing, chromatic aberration, signature, extra digits, artistic error, username, scan, [abstract], bad anatomy, bad hands, @_@, mismatched pupils, heart-shaped pupils, glowing eyes"
		}
	case ModelFurry, ModelFurryInp:
		switch preset {
		case 0:
			return "{{worst quality}}, [displeasing], {unusual pupils}, guide lines, {{unfinished}}, {bad}, url, artist name, {{tall image}}, mosaic, {sketch page}, comic panel, impact (font), [dated], {logo}, ych, {what}, {where is your god now}, {distorted text}, repeated text, {floating head}, {1994}, {widescreen}, absolutely everyone, sequence, {compression artifacts}, hard translated, {cropped}, {commissioner name}, unknown text, high contrast"
		case 1:
			return "{worst quality}, guide lines, unfinished, bad, url, tall image, widescreen, compression artifacts, unknown text"
		}
	}
	return ""
}
