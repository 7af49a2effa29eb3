package batch

import (
	"errors"
	"fmt"
)

// Common stamping errors
var (
	// ErrInvalidPDF is returned when the upload is not a PDF or cannot be parsed.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrEncrypted is returned for password-protected documents.
	ErrEncrypted = errors.New("encrypted PDF documents are not supported")

	// ErrEmptyBatchNumber is returned when no batch number was entered.
	ErrEmptyBatchNumber = errors.New("batch number is required")

	// ErrFileTooLarge is returned when the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("PDF file exceeds the maximum upload size")

	// ErrLabelNotFound is returned when no page carries the label. It is an
	// expected outcome and presented as a warning.
	ErrLabelNotFound = errors.New("could not find the text 'Batch Number:' in this document")
)

// StampError wraps errors with the operation that failed.
type StampError struct {
	// Op is the operation that failed (e.g., "Scan", "Overlay").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *StampError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("batch: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("batch: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StampError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *StampError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapStampError wraps an error as a StampError if it isn't already one.
func WrapStampError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var stampErr *StampError
	if errors.As(err, &stampErr) {
		return err
	}

	return &StampError{Op: op, Err: err, Details: details}
}

// IsUserError reports whether err was caused by the input rather than by
// the tool itself.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidPDF) ||
		errors.Is(err, ErrEncrypted) ||
		errors.Is(err, ErrEmptyBatchNumber) ||
		errors.Is(err, ErrFileTooLarge)
}
