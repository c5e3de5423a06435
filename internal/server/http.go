package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/sokinpui/nekoai.go/internal/color"
	"github.com/sokinpui/nekoai.go/nekoai"
)

// Generator is the slice of the nekoai client the proxy needs; tests
// substitute a stub.
type Generator interface {
	GenerateImage(ctx context.Context, md *nekoai.Metadata) ([]nekoai.Image, error)
	GenerateImageStream(ctx context.Context, md *nekoai.Metadata) (<-chan nekoai.Event, <-chan error)
}

type HTTPServer struct {
	generator Generator
	staticDir string
}

func NewHTTPServer(g Generator, staticDir string) *HTTPServer {
	return &HTTPServer{
		generator: g,
		staticDir: staticDir,
	}
}

func (s *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /models", s.handleListModels)
	mux.HandleFunc("POST /generate", s.handleGenerate)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
}

func (s *HTTPServer) handleListModels(w http.ResponseWriter, r *http.Request) {
	models := nekoai.Models()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]nekoai.Model{"models": models})
}

// imageResult is one generated image in the JSON response.
type imageResult struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

func (s *HTTPServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var md nekoai.Metadata
	if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	requestID := uuid.New().String()
	log.Printf("-> %s, assigned request_id: %s", color.BlueString("Received request"), requestID)
	defer log.Printf("<- %s for request_id: %s", color.GreenString("Finished request"), requestID)

	if md.Stream {
		s.streamResults(w, r, &md)
		return
	}
	s.aggregateResults(w, r, &md)
}

func (s *HTTPServer) aggregateResults(w http.ResponseWriter, r *http.Request, md *nekoai.Metadata) {
	images, err := s.generator.GenerateImage(r.Context(), md)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]imageResult, len(images))
	for i, img := range images {
		results[i] = imageResult{
			Filename: img.Filename,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]imageResult{"images": results})
}

// streamEvent is one SSE payload line.
type streamEvent struct {
	Type   string  `json:"type"`
	SampIx int     `json:"samp_ix"`
	StepIx int     `json:"step_ix"`
	Sigma  float64 `json:"sigma"`
	Data   string  `json:"data"`
}

func (s *HTTPServer) streamResults(w http.ResponseWriter, r *http.Request, md *nekoai.Metadata) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	eventCh, errCh := s.generator.GenerateImageStream(r.Context(), md)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				if err := <-errCh; err != nil {
					s.writeStreamError(w, flusher, err)
					return
				}
				fmt.Fprint(w, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			jsonData, err := json.Marshal(streamEvent{
				Type:   string(ev.Type),
				SampIx: ev.SampIx,
				StepIx: ev.StepIx,
				Sigma:  ev.Sigma,
				Data:   base64.StdEncoding.EncodeToString(ev.Image.Data),
			})
			if err != nil {
				log.Printf("Error marshalling stream event: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", jsonData)
			flusher.Flush()
		}
	}
}

func (s *HTTPServer) writeStreamError(w http.ResponseWriter, flusher http.Flusher, err error) {
	log.Printf("%s: %v", color.RedString("Stream failed"), err)
	jsonData, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

// writeError maps library error kinds to HTTP statuses. Validation
// failures name the offending field so the page can highlight it.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	body := map[string]string{"error": err.Error()}

	var vErr *nekoai.ValidationError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		body["field"] = vErr.Field
	case errors.Is(err, nekoai.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, nekoai.ErrConcurrent):
		status = http.StatusTooManyRequests
	}

	log.Printf("%s: %v", color.RedString("Request failed"), err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
