package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/nekoai.go/nekoai"
)

// stubGenerator validates like the real client but serves canned images.
type stubGenerator struct {
	err    error
	events []nekoai.Event
}

func (s *stubGenerator) GenerateImage(_ context.Context, md *nekoai.Metadata) ([]nekoai.Image, error) {
	if _, err := md.BuildPayload(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return []nekoai.Image{{Filename: "out.png", Data: []byte{0x89, 0x50}}}, nil
}

func (s *stubGenerator) GenerateImageStream(_ context.Context, md *nekoai.Metadata) (<-chan nekoai.Event, <-chan error) {
	eventCh := make(chan nekoai.Event)
	errCh := make(chan error, 1)
	go func() {
		defer close(eventCh)
		defer close(errCh)
		if _, err := md.BuildPayload(); err != nil {
			errCh <- err
			return
		}
		for _, ev := range s.events {
			eventCh <- ev
		}
	}()
	return eventCh, errCh
}

func newTestServer(g Generator) *httptest.Server {
	mux := http.NewServeMux()
	NewHTTPServer(g, "").RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func TestHandleListModels(t *testing.T) {
	ts := newTestServer(&stubGenerator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/models")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["models"], "nai-diffusion-4-5-full")
	assert.Contains(t, body["models"], "nai-diffusion-3")
}

func TestHandleGenerate(t *testing.T) {
	ts := newTestServer(&stubGenerator{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/generate", "application/json",
		strings.NewReader(`{"prompt": "1girl"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Images []imageResult `json:"images"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Images, 1)
	assert.Equal(t, "out.png", body.Images[0].Filename)
	assert.NotEmpty(t, body.Images[0].Data)
}

func TestHandleGenerate_ValidationError(t *testing.T) {
	ts := newTestServer(&stubGenerator{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/generate", "application/json",
		strings.NewReader(`{"prompt": "1girl", "steps": 99}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "steps", body["field"])
	assert.NotEmpty(t, body["error"])
}

func TestHandleGenerate_AuthError(t *testing.T) {
	ts := newTestServer(&stubGenerator{err: nekoai.ErrAuth})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/generate", "application/json",
		strings.NewReader(`{"prompt": "1girl"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleGenerate_BadBody(t *testing.T) {
	ts := newTestServer(&stubGenerator{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/generate", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGenerate_Stream(t *testing.T) {
	g := &stubGenerator{
		events: []nekoai.Event{
			{Type: nekoai.EventIntermediate, StepIx: 1, Image: nekoai.Image{Data: []byte{0xff}}},
			{Type: nekoai.EventFinal, StepIx: 28, Image: nekoai.Image{Data: []byte{0x89}}},
		},
	}
	ts := newTestServer(g)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/generate", "application/json",
		strings.NewReader(`{"prompt": "1girl", "stream": true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var lines []string
	buf := make([]byte, 16*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			lines = append(lines, string(buf[:n]))
		}
		if readErr != nil {
			break
		}
	}
	body := strings.Join(lines, "")

	assert.Contains(t, body, `"type":"intermediate"`)
	assert.Contains(t, body, `"type":"final"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "[DONE]"))
}
