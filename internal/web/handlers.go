package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"batchstamp/internal/batch"
	"batchstamp/internal/logger"
)

// Messages shown on the form.
const (
	msgLabelNotFound = "Could not find the text 'Batch Number:' in this document."
	msgNeedBatch     = "Please enter a Batch Number to proceed."
)

type ctxKey int

const loggerKey ctxKey = 0

// pageData feeds templates/index.html.
type pageData struct {
	MaxUploadMB int64
	BatchNumber string
	Warning     string
	Info        string
	Error       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.fail(w, r, pageData{}, batch.WrapStampError("Upload", batch.ErrFileTooLarge, ""))
			return
		}
		s.fail(w, r, pageData{}, batch.WrapStampError("Upload", batch.ErrInvalidPDF, err.Error()))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	data := pageData{BatchNumber: r.FormValue("batch_number")}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.fail(w, r, data, batch.WrapStampError("Upload", batch.ErrInvalidPDF, "no PDF file uploaded"))
		return
	}
	defer file.Close()

	if strings.TrimSpace(data.BatchNumber) == "" {
		data.Info = msgNeedBatch
		s.render(w, r, http.StatusBadRequest, data)
		return
	}

	pdfData, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		s.fail(w, r, data, fmt.Errorf("read upload: %w", err))
		return
	}

	log.Info().
		Str("file", header.Filename).
		Int("size", len(pdfData)).
		Msg("Processing upload")

	result, err := s.stamper.Process(r.Context(), header.Filename, pdfData, data.BatchNumber)
	switch {
	case errors.Is(err, batch.ErrLabelNotFound):
		data.Warning = msgLabelNotFound
		s.render(w, r, http.StatusOK, data)
		return
	case errors.Is(err, batch.ErrEmptyBatchNumber):
		data.Info = msgNeedBatch
		s.render(w, r, http.StatusBadRequest, data)
		return
	case err != nil:
		s.fail(w, r, data, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.Header().Set("X-Pages-Stamped", strconv.Itoa(result.PagesStamped))
	w.Header().Set("X-Pages-Total", strconv.Itoa(result.PagesTotal))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.PDF); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

// fail renders the form with the error text and a status matching its cause.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, data pageData, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, batch.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case batch.IsUserError(err):
		status = http.StatusBadRequest
	}

	log := requestLogger(r.Context())
	evt := log.Warn()
	if status == http.StatusInternalServerError {
		evt = log.Error()
	}
	evt.Err(err).Int("status", status).Msg("Processing failed")

	data.Error = err.Error()
	s.render(w, r, status, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.MaxUploadMB = s.cfg.MaxUploadBytes >> 20

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log := requestLogger(r.Context())
		log.Error().Err(err).Msg("Failed to render template")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// withRequestLogging tags each request with an id and logs its outcome.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		log := logger.WithRequestID(requestID).With().Str("component", "web").Logger()

		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey, log)))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func requestLogger(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return logger.WithComponent("web")
}
