package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Server owns the HTTP listener lifecycle around an HTTPServer.
type Server struct {
	httpServer *http.Server
}

func New(h *HTTPServer, port int) *Server {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
// Streaming generations get a grace period before the listener closes.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening at %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
