package nekoai

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

// Image is a single generated or processed image. Data is opaque to the
// library; the backend decides between PNG (final frames, V3 outputs) and
// JPEG (intermediate frames).
type Image struct {
	Filename string
	Data     []byte
}

func (i Image) String() string {
	return fmt.Sprintf("Image(%s, %d bytes)", i.Filename, len(i.Data))
}

// Save writes the image under dir, creating the directory if needed. An
// empty filename falls back to i.Filename.
func (i Image) Save(dir, filename string) error {
	if filename == "" {
		filename = i.Filename
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), i.Data, 0o644)
}

// extension guesses the file extension from the image signature.
func extension(data []byte) string {
	if bytes.HasPrefix(data, []byte{0xff, 0xd8}) {
		return "jpg"
	}
	return "png"
}

// probeImage validates raw PNG/JPEG bytes and returns width, height and
// the base64 encoding the backend expects.
func probeImage(data []byte) (width, height int, encoded string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrImageInput, err)
	}
	if format != "png" && format != "jpeg" {
		return 0, 0, "", fmt.Errorf("%w: unsupported format %q", ErrImageInput, format)
	}
	return cfg.Width, cfg.Height, base64.StdEncoding.EncodeToString(data), nil
}

// LoadImage reads an image file for use as a director-tool or img2img
// input. The bytes are returned untouched.
func LoadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageInput, err)
	}
	return data, nil
}
