package services

import (
	"errors"
	"fmt"
)

// ErrNoScoreMarkers means a report contained no usable "<n>/5" markers.
var ErrNoScoreMarkers = errors.New("no score markers found in report")

// ErrReportUnavailable is the aggregate stage error when report generation failed.
var ErrReportUnavailable = errors.New("report unavailable")

// ExtractionError wraps any failure to turn a document into text.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Cause == nil {
		return "failed to extract text from PDF"
	}
	return fmt.Sprintf("failed to extract text from PDF: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// EmbeddingError is returned when a text cannot be embedded or two vectors cannot be compared.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s failed: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

type GenerationErrorKind string

const (
	KindNetwork           GenerationErrorKind = "network"
	KindTimeout           GenerationErrorKind = "timeout"
	KindAuth              GenerationErrorKind = "auth"
	KindRateLimit         GenerationErrorKind = "rate_limit"
	KindService           GenerationErrorKind = "service"
	KindBadRequest        GenerationErrorKind = "bad_request"
	KindEmptyResponse     GenerationErrorKind = "empty_response"
	KindMalformedResponse GenerationErrorKind = "malformed_response"
	// KindCanceled means the caller gave up; it is never retried.
	KindCanceled GenerationErrorKind = "canceled"
)

// GenerationError describes a failed report generation call.
type GenerationError struct {
	Kind       GenerationErrorKind
	Provider   string
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s report generation failed (%s)", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s, status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed.
func (e *GenerationError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimit, KindService:
		return true
	default:
		return false
	}
}

// kindForStatus maps an HTTP status of a failed call to an error kind.
func kindForStatus(status int) GenerationErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status == 408 || status == 504:
		return KindTimeout
	case status >= 500:
		return KindService
	default:
		return KindBadRequest
	}
}
