// Package web serves the upload form and the stamping endpoint.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"batchstamp/internal/batch"
	"batchstamp/internal/logger"
)

//go:embed templates/index.html
var templateFS embed.FS

// shutdownTimeout bounds how long in-flight requests may take after a stop signal.
const shutdownTimeout = 15 * time.Second

// multipartOverhead is allowed on top of the PDF size for form fields and boundaries.
const multipartOverhead = 1 << 20

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxUploadBytes: batch.DefaultMaxFileSize,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
	}
}

// Server is the web front end of the stamping service.
type Server struct {
	cfg     Config
	stamper batch.Stamper
	tmpl    *template.Template
}

// NewServer creates a Server that delegates stamping to stamper.
func NewServer(cfg Config, stamper batch.Stamper) (*Server, error) {
	if stamper == nil {
		return nil, errors.New("web: stamper is required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = batch.DefaultMaxFileSize
	}

	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}

	return &Server{cfg: cfg, stamper: stamper, tmpl: tmpl}, nil
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return withRequestLogging(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	log := logger.WithComponent("web")

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", s.cfg.Addr).
			Int64("max_upload_bytes", s.cfg.MaxUploadBytes).
			Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web: listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}
