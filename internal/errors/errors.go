package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a FlowFocus error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrImportFormat          ErrorCode = "IMPORT_FORMAT"          // 400
	ErrInvalidVideoURL       ErrorCode = "INVALID_VIDEO_URL"      // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrTranscriptDisabled    ErrorCode = "TRANSCRIPT_DISABLED"    // 404
	ErrTranscriptUnavailable ErrorCode = "TRANSCRIPT_UNAVAILABLE" // 404
	ErrValidation            ErrorCode = "VALIDATION_FAILED"      // 422
	ErrCancelled             ErrorCode = "CANCELLED"              // 499
	ErrInternal              ErrorCode = "INTERNAL"               // 500
	ErrGeneration            ErrorCode = "GENERATION_FAILED"      // 502
	ErrTranscriptFailed      ErrorCode = "TRANSCRIPT_FAILED"      // 502
)

// FlowError represents a structured error with code, status, and details.
type FlowError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldErrors maps a field name to the reason it was rejected.
type FieldErrors map[string]string

// Add records a problem with field. The first reason for a field wins.
func (f FieldErrors) Add(field, reason string) {
	if _, ok := f[field]; !ok {
		f[field] = reason
	}
}

// Fields returns the offending field names in sorted order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns a validation error for the collected fields, or nil if none were added.
func (f FieldErrors) Err(subject string) error {
	if len(f) == 0 {
		return nil
	}
	return NewValidation(subject, f)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FlowError {
	return &FlowError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewValidation creates a 422 error listing every offending field.
func NewValidation(subject string, fields FieldErrors) *FlowError {
	names := fields.Fields()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, fields[name]))
	}
	return &FlowError{
		Code:    ErrValidation,
		Status:  422,
		Message: fmt.Sprintf("invalid %s: %s", subject, strings.Join(parts, ", ")),
		Details: map[string]any{"fields": map[string]string(fields)},
	}
}

// NewNotFound creates a 404 error for a missing entity.
func NewNotFound(kind, id string) *FlowError {
	return &FlowError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewImportFormat creates a 400 error for a rejected import file.
func NewImportFormat(msg string) *FlowError {
	return &FlowError{
		Code:    ErrImportFormat,
		Status:  400,
		Message: msg,
	}
}

// NewGeneration creates a 502 error for a failed or malformed AI generation.
func NewGeneration(flow string, err error) *FlowError {
	msg := fmt.Sprintf("%s generation failed", flow)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &FlowError{
		Code:    ErrGeneration,
		Status:  502,
		Message: msg,
		Details: map[string]any{"flow": flow},
	}
}

// NewInvalidVideoURL creates a 400 error when no video identifier can be resolved.
func NewInvalidVideoURL(rawURL string) *FlowError {
	return &FlowError{
		Code:    ErrInvalidVideoURL,
		Status:  400,
		Message: fmt.Sprintf("not a recognized video URL: %q", rawURL),
		Details: map[string]any{"url": rawURL},
	}
}

// NewTranscriptDisabled creates a 404 error when subtitles are turned off for a video.
func NewTranscriptDisabled(videoID string) *FlowError {
	return &FlowError{
		Code:    ErrTranscriptDisabled,
		Status:  404,
		Message: fmt.Sprintf("subtitles are disabled for video %s", videoID),
		Details: map[string]any{"video_id": videoID},
	}
}

// NewTranscriptUnavailable creates a 404 error when a video has no usable transcript.
func NewTranscriptUnavailable(videoID string) *FlowError {
	return &FlowError{
		Code:    ErrTranscriptUnavailable,
		Status:  404,
		Message: fmt.Sprintf("no transcript available for video %s", videoID),
		Details: map[string]any{"video_id": videoID},
	}
}

// NewTranscriptFailed creates a 502 error for any other transcript failure.
func NewTranscriptFailed(videoID string, err error) *FlowError {
	msg := fmt.Sprintf("failed to fetch transcript for video %s", videoID)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &FlowError{
		Code:    ErrTranscriptFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"video_id": videoID},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by its caller.
func NewCancelled(operation string) *FlowError {
	return &FlowError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FlowError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FlowError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a FlowError with the given code.
func Is(err error, code ErrorCode) bool {
	var fErr *FlowError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// As returns the FlowError carried by err, wrapping anything else as internal.
func As(err error) *FlowError {
	var fErr *FlowError
	if stderrors.As(err, &fErr) {
		return fErr
	}
	return NewInternal(err)
}
