package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrGeneration    = errors.New("generation failed")
	ErrEmptyHistory  = errors.New("no history to undo")
	ErrParagraphBusy = errors.New("paragraph has a revision in flight")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a referenced paragraph, card or episode is absent
	NotFoundError struct {
		Resource string
		ID       string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// GenerationError indicates the text-generation call failed or returned
	// output that could not be used.
	GenerationError struct {
		Op  string
		Err error
	}

	// EmptyHistoryError is returned by Undo when there is nothing to undo.
	// It is user-facing and non-fatal.
	EmptyHistoryError struct {
		ParagraphID string
	}

	// BusyError is returned when a paragraph already has a revision in flight
	BusyError struct {
		ParagraphID string
	}
)

func (e *BusyError) Error() string {
	return fmt.Sprintf("paragraph %s has a revision in flight", e.ParagraphID)
}
func (e *BusyError) StatusCode() int      { return http.StatusConflict }
func (e *BusyError) Is(target error) bool { return target == ErrParagraphBusy }

// NewNotFound builds a NotFoundError for a resource kind and id.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewGeneration wraps a generation failure for the given operation.
func NewGeneration(op string, err error) *GenerationError {
	return &GenerationError{Op: op, Err: err}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
func (e *ValidationError) Error() string { return e.Message }
func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: generation failed", e.Op)
	}
	return fmt.Sprintf("%s: generation failed: %v", e.Op, e.Err)
}
func (e *EmptyHistoryError) Error() string {
	return fmt.Sprintf("paragraph %s has no history to undo", e.ParagraphID)
}

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *GenerationError) StatusCode() int   { return http.StatusBadGateway }
func (e *EmptyHistoryError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *GenerationError) Is(target error) bool   { return target == ErrGeneration }
func (e *EmptyHistoryError) Is(target error) bool { return target == ErrEmptyHistory }

func (e *GenerationError) Unwrap() error { return e.Err }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (episode, paragraph, card)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
