package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input/config
	ErrCatCollect    ErrorCategory = "collect"    // Page snapshot/navigation failure
	ErrCatReview     ErrorCategory = "review"     // AI reviewer failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out or stalled
	ErrCatState      ErrorCategory = "state"      // Checkpoint corruption/incompatibility
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError is a structured error from the audit domain.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Cause }

// Is matches on category and code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{Category: ErrCatState, Code: code, Message: message}
}

// ErrTimeout creates a retryable timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{Category: ErrCatTimeout, Code: "TIMEOUT", Message: message, Retryable: true}
}

// ErrReview creates a reviewer error; retryable marks stall-shaped failures.
func ErrReview(code, message string, retryable bool) *DomainError {
	return &DomainError{Category: ErrCatReview, Code: code, Message: message, Retryable: retryable}
}

// PageFailure describes a snapshot/navigation failure for one page. The
// diagnostic tail is bounded so per-criterion error notes stay readable.
type PageFailure struct {
	URL     string
	Message string
	Tail    string
	Cause   error
}

func (e *PageFailure) Error() string {
	if e.Tail != "" {
		return fmt.Sprintf("page %s failed: %s [%s]", e.URL, e.Message, e.Tail)
	}
	return fmt.Sprintf("page %s failed: %s", e.URL, e.Message)
}

func (e *PageFailure) Unwrap() error { return e.Cause }

// MaxDiagnosticTail bounds the diagnostic output carried in a PageFailure.
const MaxDiagnosticTail = 400

// NewPageFailure builds a PageFailure with a bounded diagnostic tail.
func NewPageFailure(url string, cause error, diagnostic string) *PageFailure {
	tail := strings.TrimSpace(diagnostic)
	if len(tail) > MaxDiagnosticTail {
		tail = tail[len(tail)-MaxDiagnosticTail:]
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &PageFailure{URL: url, Message: msg, Tail: tail, Cause: cause}
}

// Summary returns the human-readable page-failure text used in per-criterion
// Error evaluations.
func (e *PageFailure) Summary() string {
	if e.Tail != "" {
		return fmt.Sprintf("page could not be audited: %s (diagnostic: %s)", e.Message, e.Tail)
	}
	return fmt.Sprintf("page could not be audited: %s", e.Message)
}

// IsRetryable checks if an error is marked retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// IsCancellation reports whether err is a cooperative cancellation. Deadline
// expiry is deliberately excluded: timeouts are stall-shaped and retryable.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category == cat
	}
	return false
}

// Predefined error codes.
const (
	CodeResumeIncompatible = "RESUME_INCOMPATIBLE"
	CodeStateCorrupted     = "STATE_CORRUPTED"
	CodeReviewerStall      = "REVIEWER_STALL"
	CodeReviewerRejected   = "REVIEWER_REJECTED"
	CodeEmptyPlan          = "EMPTY_PLAN"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeMissingEvaluation  = "MISSING_EVALUATION"
)
