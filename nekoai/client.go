package nekoai

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Client talks to the NovelAI image backend. Construct it with New or
// NewWithCredentials; the zero value is not usable.
type Client struct {
	token   string
	hostWeb string
	hostAPI string
	http    *http.Client
	vibes   VibeCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to add a
// proxy or custom TLS settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout. Generation can take tens of
// seconds; the default is 120s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHost overrides the image-generation host, e.g. for a local proxy.
func WithHost(host string) Option {
	return func(c *Client) { c.hostWeb = host }
}

// WithVibeCache replaces the in-process vibe token cache, e.g. with the
// Redis-backed implementation.
func WithVibeCache(cache VibeCache) Option {
	return func(c *Client) { c.vibes = cache }
}

// New returns a client authenticated with a persistent API token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		hostWeb: HostWeb,
		hostAPI: HostAPI,
		http:    &http.Client{Timeout: 120 * time.Second},
		vibes:   NewMemoryVibeCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithCredentials logs in with a username and password and returns a
// client holding the resulting access token.
func NewWithCredentials(ctx context.Context, username, password string, opts ...Option) (*Client, error) {
	c := New("", opts...)
	key, err := accessKey(username, password)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"key": key})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hostAPI+endpointLogin, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	applyHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var login struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if login.AccessToken == "" {
		return nil, fmt.Errorf("%w: login returned no access token", ErrAuth)
	}
	c.token = login.AccessToken
	return c, nil
}

// Token returns the access token the client authenticates with.
func (c *Client) Token() string {
	return c.token
}

// GenerateImage runs one generation to completion and returns the final
// images. A zero seed is replaced with a random one first, so the seed
// recorded in the payload is the seed that actually ran.
func (c *Client) GenerateImage(ctx context.Context, md *Metadata) ([]Image, error) {
	c.ensureSeed(md)
	payload, err := md.BuildPayload()
	if err != nil {
		return nil, err
	}
	if err := c.resolveVibes(ctx, payload); err != nil {
		return nil, err
	}

	// The V3 generation answers with a zip of PNGs on the plain
	// endpoint; every V4-family request goes through the stream
	// endpoint and answers msgpack frames, whatever the action.
	if !payload.Model.IsV4() {
		data, err := c.post(ctx, c.hostWeb+endpointImage, payload)
		if err != nil {
			return nil, err
		}
		return unzipImages(data)
	}

	data, err := c.post(ctx, c.hostWeb+endpointImageStream, payload)
	if err != nil {
		return nil, err
	}
	events, err := parseEvents(data, payload.Parameters.NSamples)
	if err != nil {
		return nil, err
	}
	images := finalImages(events)
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: stream ended without a final image", ErrAPI)
	}
	return images, nil
}

// GenerateImageStream runs one generation and delivers classified events
// as they arrive: intermediate denoising steps, then exactly one final
// image per sample. The event channel is closed when the stream ends;
// at most one error is sent. Streaming requires a V4/V4.5 model.
func (c *Client) GenerateImageStream(ctx context.Context, md *Metadata) (<-chan Event, <-chan error) {
	eventCh := make(chan Event)
	errCh := make(chan error, 1)

	go func() {
		defer close(eventCh)
		defer close(errCh)

		streamed := *md
		streamed.Stream = true
		c.ensureSeed(&streamed)

		payload, err := streamed.BuildPayload()
		if err != nil {
			errCh <- err
			return
		}
		if payload.Parameters.Stream == "" {
			errCh <- invalidField("stream", "action %s does not support streaming", payload.Action)
			return
		}
		if err := c.resolveVibes(ctx, payload); err != nil {
			errCh <- err
			return
		}

		resp, err := c.send(ctx, c.hostWeb+endpointImageStream, payload)
		if err != nil {
			errCh <- err
			return
		}
		defer resp.Body.Close()

		parser := NewStreamParser()
		parser.ExpectFinals(payload.Parameters.NSamples)
		buf := make([]byte, 32*1024)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				events, err := parser.Feed(buf[:n])
				if err != nil {
					errCh <- err
					return
				}
				for _, ev := range events {
					select {
					case eventCh <- ev:
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					}
				}
				if parser.Done() {
					return
				}
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				errCh <- readErr
				return
			}
		}
	}()

	return eventCh, errCh
}

// ensureSeed replaces a zero seed so the payload records what ran.
func (c *Client) ensureSeed(md *Metadata) {
	if md.Seed == 0 {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		md.Seed = r.Int63n(maxSeed + 1)
	}
}

// resolveVibes swaps raw reference images for encoded vibe tokens on
// models that take tokens instead of pixels. Tokens are cached by image
// digest, extraction weight and model.
func (c *Client) resolveVibes(ctx context.Context, p *Payload) error {
	if p.Model != ModelV4Cur || len(p.Parameters.ReferenceImageMultiple) == 0 {
		return nil
	}
	for i, ref := range p.Parameters.ReferenceImageMultiple {
		weight := p.Parameters.ReferenceInformationExtractedMultiple[i]
		key := vibeKey(ref, weight, p.Model)

		if encoded, ok, err := c.vibes.Get(ctx, key); err == nil && ok {
			p.Parameters.ReferenceImageMultiple[i] = encoded
			continue
		}

		encoded, err := c.encodeVibe(ctx, ref, weight, p.Model)
		if err != nil {
			return err
		}
		// Cache failures only cost a re-encode next time.
		_ = c.vibes.Set(ctx, key, encoded)
		p.Parameters.ReferenceImageMultiple[i] = encoded
	}
	return nil
}

func vibeKey(image string, weight float64, model Model) string {
	sum := sha256.Sum256([]byte(image))
	return fmt.Sprintf("%x:%g:%s", sum[:8], weight, model)
}

// encodeVibe asks the backend to condense one reference image into a
// vibe token.
func (c *Client) encodeVibe(ctx context.Context, image string, weight float64, model Model) (string, error) {
	body := map[string]any{
		"image":                 image,
		"information_extracted": weight,
		"model":                 model,
	}
	data, err := c.post(ctx, c.hostWeb+endpointEncodeVibe, body)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// post sends a JSON body and buffers the whole response.
func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	resp, err := c.send(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// send issues the request and maps non-2xx statuses to error kinds. The
// caller owns the response body on success.
func (c *Client) send(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	applyHeaders(req, c.token)
	req.Header.Set("x-correlation-id", correlationID())
	req.Header.Set("x-initiated-at", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

const correlationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func correlationID() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	id := make([]byte, 6)
	for i := range id {
		id[i] = correlationAlphabet[r.Intn(len(correlationAlphabet))]
	}
	return string(id)
}

// statusError translates a backend status into the library's error
// kinds, carrying the backend's message verbatim.
func statusError(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s (status 400)", ErrAPI, detail)
	case http.StatusUnauthorized, http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s (status %d)", ErrAuth, detail, resp.StatusCode)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s (status 409)", ErrAPI, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (status 429)", ErrConcurrent, detail)
	}
	return fmt.Errorf("%w: %s (status %d)", ErrAPI, detail, resp.StatusCode)
}

func readErrorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return string(bytes.TrimSpace(data))
}

func applyHeaders(req *http.Request, token string) {
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// unzipImages unpacks the V3 zip response into images in archive order.
func unzipImages(data []byte) ([]Image, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: response is not a zip archive: %v", ErrAPI, err)
	}
	stamp := time.Now().Format("20060102_150405")
	images := make([]Image, 0, len(zr.File))
	for i, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAPI, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAPI, err)
		}
		images = append(images, Image{
			Filename: fmt.Sprintf("%s_%d.%s", stamp, i, extension(data)),
			Data:     data,
		})
	}
	return images, nil
}
