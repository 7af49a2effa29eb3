// Package batch stamps batch numbers next to the "Batch Number:" label of a
// PDF document.
//
// Processing runs in two passes over the same bytes:
//   - the scanner reads the text layout and records, per page, the anchor to
//     the right of the first label occurrence
//   - the overlay writer draws the batch number at each anchor on top of the
//     original page content
//
// Pages without the label pass through unchanged. A document without any
// label yields ErrLabelNotFound, which callers present as a warning.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"batchstamp/internal/logger"
	"batchstamp/internal/overlay"
	"batchstamp/internal/scanner"
	"batchstamp/pkg/models"
)

// DefaultMaxFileSize is the default upload limit (20MB).
const DefaultMaxFileSize = 20 * 1024 * 1024

// headerWindow is how far into the file the %PDF marker may appear.
const headerWindow = 1024

// Stamper defines the interface for batch number stamping.
type Stamper interface {
	// Locate returns the label anchors of every page that carries the label.
	Locate(ctx context.Context, pdfData []byte) (models.Positions, error)

	// Process stamps batchNumber onto pdfData and names the result after fileName.
	Process(ctx context.Context, fileName string, pdfData []byte, batchNumber string) (*models.StampResult, error)
}

// Config holds limits for the stamping service.
type Config struct {
	// MaxFileSize is the largest accepted document in bytes. Zero disables the check.
	MaxFileSize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxFileSize: DefaultMaxFileSize}
}

// Service implements Stamper.
type Service struct {
	cfg Config
}

// NewService creates a stamping service.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Locate validates pdfData and returns the label anchors.
func (s *Service) Locate(ctx context.Context, pdfData []byte) (models.Positions, error) {
	layouts, err := s.readLayouts(ctx, "Locate", pdfData)
	if err != nil {
		return nil, err
	}
	positions := scanner.Locate(layouts)

	log := logger.WithComponent("batch")
	log.Debug().
		Int("pages", len(layouts)).
		Int("matches", len(positions)).
		Msg("Label scan finished")
	return positions, nil
}

// Layouts validates pdfData and returns the text layout of every page, in
// page order.
func (s *Service) Layouts(ctx context.Context, pdfData []byte) ([]scanner.PageLayout, error) {
	return s.readLayouts(ctx, "Layouts", pdfData)
}

func (s *Service) readLayouts(ctx context.Context, op string, pdfData []byte) ([]scanner.PageLayout, error) {
	if err := s.validate(pdfData); err != nil {
		return nil, WrapStampError(op, err, "")
	}

	layouts, err := scanner.ReadLayouts(ctx, pdfData)
	if err != nil {
		return nil, wrapTranslated(op, err)
	}
	return layouts, nil
}

// Process runs scan and overlay and returns the stamped document.
func (s *Service) Process(ctx context.Context, fileName string, pdfData []byte, batchNumber string) (*models.StampResult, error) {
	const op = "Process"
	log := logger.WithComponent("batch")

	batchNumber = strings.TrimSpace(batchNumber)
	if batchNumber == "" {
		return nil, WrapStampError(op, ErrEmptyBatchNumber, "")
	}

	positions, err := s.Locate(ctx, pdfData)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		log.Warn().
			Str("file", fileName).
			Msg("Label not found in document")
		return nil, WrapStampError(op, ErrLabelNotFound, "")
	}

	if err := ctx.Err(); err != nil {
		return nil, WrapStampError(op, err, "canceled after scan")
	}

	out, err := overlay.Apply(ctx, pdfData, batchNumber, positions)
	if err != nil {
		return nil, wrapTranslated(op, err)
	}

	result := &models.StampResult{
		PDF:          out.PDF,
		FileName:     OutputName(fileName, batchNumber),
		PagesStamped: out.PagesStamped,
		PagesTotal:   out.PagesTotal,
		StampedPages: out.StampedPages,
		Positions:    positions,
	}

	log.Info().
		Str("file", fileName).
		Str("output", result.FileName).
		Int("pages_stamped", result.PagesStamped).
		Int("pages_total", result.PagesTotal).
		Msg("Batch number added")

	return result, nil
}

func (s *Service) validate(pdfData []byte) error {
	if s.cfg.MaxFileSize > 0 && int64(len(pdfData)) > s.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(pdfData), s.cfg.MaxFileSize)
	}
	head := pdfData
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return fmt.Errorf("%w: missing PDF header", ErrInvalidPDF)
	}
	return nil
}

// wrapTranslated wraps err, mapping scanner and overlay failures onto this
// package's errors and keeping their text as details.
func wrapTranslated(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return WrapStampError(op, err, "")
	case errors.Is(err, overlay.ErrEncrypted):
		return WrapStampError(op, ErrEncrypted, err.Error())
	case errors.Is(err, scanner.ErrUnreadable), errors.Is(err, overlay.ErrUnreadable):
		return WrapStampError(op, ErrInvalidPDF, err.Error())
	default:
		return WrapStampError(op, err, "")
	}
}
