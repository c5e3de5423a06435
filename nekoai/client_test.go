package nekoai

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipResponse(t *testing.T, files ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, data := range files {
		f, err := zw.Create(string(rune('a'+i)) + ".png")
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestGenerateImage_V3UsesPlainEndpoint(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(zipResponse(t, []byte{0x89, 0x50}))
	}))
	defer ts.Close()

	c := New("token", WithHost(ts.URL))
	images, err := c.GenerateImage(context.Background(), &Metadata{
		Prompt: "1girl",
		Model:  ModelV3,
	})
	require.NoError(t, err)
	assert.Equal(t, "/ai/generate-image", gotPath)
	require.Len(t, images, 1)
	assert.Equal(t, []byte{0x89, 0x50}, images[0].Data)
}

func TestGenerateImage_V4Img2ImgUsesStreamEndpoint(t *testing.T) {
	// The V4 generation answers msgpack on the stream endpoint for
	// every action, img2img included.
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(finalFrame(t))
	}))
	defer ts.Close()

	c := New("token", WithHost(ts.URL))
	images, err := c.GenerateImage(context.Background(), &Metadata{
		Prompt:   "1girl",
		Model:    ModelV45,
		Action:   ActionImg2Img,
		Image:    "aW1hZ2U=",
		Strength: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "/ai/generate-image-stream", gotPath)
	require.Len(t, images, 1)
}

func TestGenerateImage_MultiSampleReturnsAllFinals(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(finalFrameForSample(t, 0))
		w.Write(finalFrameForSample(t, 1))
	}))
	defer ts.Close()

	c := New("token", WithHost(ts.URL))
	images, err := c.GenerateImage(context.Background(), &Metadata{
		Prompt:   "1girl",
		Model:    ModelV45,
		NSamples: 2,
	})
	require.NoError(t, err)
	require.Len(t, images, 2)
}

func TestGenerateImage_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusPaymentRequired, ErrAuth},
		{http.StatusTooManyRequests, ErrConcurrent},
		{http.StatusBadRequest, ErrAPI},
		{http.StatusConflict, ErrAPI},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message": "nope"}`, tt.status)
			}))
			defer ts.Close()

			c := New("token", WithHost(ts.URL))
			_, err := c.GenerateImage(context.Background(), &Metadata{Prompt: "1girl"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}
