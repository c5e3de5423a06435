package nekoai

import (
	"context"
	"fmt"
	"strings"
)

// Emotion is a target expression for the emotion director tool.
type Emotion string

const (
	EmotionNeutral     Emotion = "neutral"
	EmotionHappy       Emotion = "happy"
	EmotionSad         Emotion = "sad"
	EmotionAngry       Emotion = "angry"
	EmotionScared      Emotion = "scared"
	EmotionSurprised   Emotion = "surprised"
	EmotionTired       Emotion = "tired"
	EmotionExcited     Emotion = "excited"
	EmotionNervous     Emotion = "nervous"
	EmotionThinking    Emotion = "thinking"
	EmotionConfused    Emotion = "confused"
	EmotionShy         Emotion = "shy"
	EmotionDisgusted   Emotion = "disgusted"
	EmotionSmug        Emotion = "smug"
	EmotionBored       Emotion = "bored"
	EmotionLaughing    Emotion = "laughing"
	EmotionIrritated   Emotion = "irritated"
	EmotionAroused     Emotion = "aroused"
	EmotionEmbarrassed Emotion = "embarrassed"
	EmotionWorried     Emotion = "worried"
	EmotionLove        Emotion = "love"
	EmotionDetermined  Emotion = "determined"
	EmotionHurt        Emotion = "hurt"
	EmotionPlayful     Emotion = "playful"
)

// EmotionLevel weakens the emotion change; 0 is the full effect.
type EmotionLevel int

const (
	EmotionLevelNormal EmotionLevel = iota
	EmotionLevelSlightlyWeak
	EmotionLevelWeak
	EmotionLevelEvenWeaker
	EmotionLevelVeryWeak
	EmotionLevelWeakest
)

// directorRequest is the body of the augment endpoint.
type directorRequest struct {
	ReqType string `json:"req_type"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Image   string `json:"image"`
	Prompt  string `json:"prompt,omitempty"`
	Defry   int    `json:"defry,omitempty"`
}

// augment runs one director tool over a raw PNG/JPEG input and returns
// the processed images.
func (c *Client) augment(ctx context.Context, reqType string, image []byte, prompt string, defry int) ([]Image, error) {
	width, height, encoded, err := probeImage(image)
	if err != nil {
		return nil, err
	}
	body := directorRequest{
		ReqType: reqType,
		Width:   width,
		Height:  height,
		Image:   encoded,
		Prompt:  prompt,
		Defry:   defry,
	}
	data, err := c.post(ctx, c.hostWeb+endpointDirector, body)
	if err != nil {
		return nil, err
	}
	return unzipImages(data)
}

// LineArt converts the image to line art.
func (c *Client) LineArt(ctx context.Context, image []byte) ([]Image, error) {
	return c.augment(ctx, "lineart", image, "", 0)
}

// Sketch converts the image to a pencil sketch.
func (c *Client) Sketch(ctx context.Context, image []byte) ([]Image, error) {
	return c.augment(ctx, "sketch", image, "", 0)
}

// BackgroundRemoval cuts the subject out of the background.
func (c *Client) BackgroundRemoval(ctx context.Context, image []byte) ([]Image, error) {
	return c.augment(ctx, "bg-removal", image, "", 0)
}

// Declutter removes text, bubbles and watermarks.
func (c *Client) Declutter(ctx context.Context, image []byte) ([]Image, error) {
	return c.augment(ctx, "declutter", image, "", 0)
}

// Colorize adds color to line art or sketches. The optional prompt
// steers the palette.
func (c *Client) Colorize(ctx context.Context, image []byte, prompt string, defry int) ([]Image, error) {
	return c.augment(ctx, "colorize", image, prompt, defry)
}

// ChangeEmotion redraws a character's expression. The prompt field of
// the request carries the target emotion and any extra guidance joined
// by double semicolons.
func (c *Client) ChangeEmotion(ctx context.Context, image []byte, emotion Emotion, extra string, level EmotionLevel) ([]Image, error) {
	if emotion == "" {
		return nil, invalidField("emotion", "must not be empty")
	}
	if level < EmotionLevelNormal || level > EmotionLevelWeakest {
		return nil, invalidField("emotion_level", "must be in [%d, %d]", EmotionLevelNormal, EmotionLevelWeakest)
	}
	prompt := fmt.Sprintf("%s;;%s", emotion, strings.TrimSpace(extra))
	return c.augment(ctx, "emotion", image, prompt, int(level))
}
