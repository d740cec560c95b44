package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotFound             = errors.New("resource not found")
	ErrCancelled            = errors.New("verification cancelled")
	ErrEmptyResponse        = errors.New("empty response from model")
	ErrUnknownDocumentType  = errors.New("document type could not be determined")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// NormalizationError reports an image that could not be normalized.
type NormalizationError struct {
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalization error: %s: %v", e.Reason, e.Err)
	}
	return "normalization error: " + e.Reason
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// TransientServiceError is a timeout, connection failure or 5xx from an
// external service. It is eligible for bounded retry.
type TransientServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s %s: transient failure: %v", e.Service, e.Op, e.Err)
}

func (e *TransientServiceError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a TransientServiceError.
func NewTransientError(service, op string, err error) *TransientServiceError {
	return &TransientServiceError{Service: service, Op: op, Err: err}
}

// UnparseableResponseError means the model answered with content that does
// not fit the expected structure. It is never retried.
type UnparseableResponseError struct {
	Reason      string
	RawResponse string
}

func (e *UnparseableResponseError) Error() string {
	return "unparseable model response: " + e.Reason
}

// OcrError reports an OCR failure. The pipeline degrades to LLM-only on it.
type OcrError struct {
	Reason string
	Err    error
}

func (e *OcrError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr error: %s: %v", e.Reason, e.Err)
	}
	return "ocr error: " + e.Reason
}

func (e *OcrError) Unwrap() error {
	return e.Err
}

// temporary is implemented by errors that know they are retryable, such as
// provider rate-limit errors.
type temporary interface {
	Temporary() bool
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var unparseable *UnparseableResponseError
	if errors.As(err, &unparseable) {
		return false
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var transient *TransientServiceError
	if errors.As(err, &transient) {
		return true
	}
	var tmp temporary
	if errors.As(err, &tmp) && tmp.Temporary() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
