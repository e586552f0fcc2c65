// Package envelope defines the uniform success/error response wrapper shared
// by every Let Go Buddy endpoint, along with the error taxonomy surfaced to
// callers.
package envelope

import (
	"fmt"
	"strings"
	"time"
)

// Version identifies the envelope/output schema revision carried in meta.
const Version = "1.0"

// Error codes surfaced to callers. Every pipeline failure maps onto exactly
// one of these.
const (
	CodeValidation  = "validation_error"
	CodeInternal    = "internal_error"
	CodeImageAccess = "image_access_error"
	CodeTimeout     = "timeout_error"
)

// Meta carries per-request metadata attached to every envelope.
type Meta struct {
	RequestID  string `json:"request_id"`
	DurationMS int64  `json:"duration_ms"`
	Model      string `json:"model,omitempty"`
	Version    string `json:"version"`
}

// ErrorBody is the wire shape of a classified failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the uniform response wrapper. Exactly one of Data and Error is
// set; Meta is always present.
type Envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
	Meta  Meta       `json:"meta"`
}

// Success wraps a validated result. The model name is attached only on
// success.
func Success(requestID string, start time.Time, model string, data any) Envelope {
	return Envelope{
		Data: data,
		Meta: Meta{
			RequestID:  requestID,
			DurationMS: time.Since(start).Milliseconds(),
			Model:      model,
			Version:    Version,
		},
	}
}

// Failure wraps a classified error.
func Failure(requestID string, start time.Time, err *Error) Envelope {
	return Envelope{
		Error: &ErrorBody{Code: err.Code, Message: err.Message},
		Meta: Meta{
			RequestID:  requestID,
			DurationMS: time.Since(start).Milliseconds(),
			Version:    Version,
		},
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Internal creates an internal_error.
func Internal(message string) *Error {
	return &Error{Code: CodeInternal, Message: message}
}

// Timeout creates a timeout_error.
func Timeout(message string) *Error {
	return &Error{Code: CodeTimeout, Message: message}
}

// ImageAccess creates an image_access_error.
func ImageAccess(message string) *Error {
	return &Error{Code: CodeImageAccess, Message: message}
}

// FieldError describes a single violated request constraint.
type FieldError struct {
	Field  string
	Reason string
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// Validation aggregates every violated field into one validation_error so the
// caller sees all problems at once, not just the first.
func Validation(errs []FieldError) *Error {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return &Error{Code: CodeValidation, Message: strings.Join(parts, "; ")}
}
