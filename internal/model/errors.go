package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Capability errors (2xxx)
	ErrCodeForbidden          ErrorCode = 2001
	ErrCodeOperationForbidden ErrorCode = 2002

	// Resource errors (3xxx)
	ErrCodeNotFound ErrorCode = 3001
	ErrCodeConflict ErrorCode = 3003

	// Validation errors (4xxx)
	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002
	ErrCodeRateLimited  ErrorCode = 4029

	// Internal errors (5xxx)
	ErrCodeInternal ErrorCode = 5001
	ErrCodeDatabase ErrorCode = 5002
)

const problemBase = "https://odm-api.forgo.software/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code ErrorCode `json:"code,omitempty"`
}

// FieldError represents a rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WithInstance sets the URI of the request the problem occurred on.
func (p *ProblemDetails) WithInstance(uri string) *ProblemDetails {
	p.Instance = uri
	return p
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// newProblem builds a problem whose type URI is problemBase plus slug.
func newProblem(slug string, status int, code ErrorCode, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemBase + slug,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// NewForbiddenError reports a model that has no HTTP API at all.
func NewForbiddenError(detail string) *ProblemDetails {
	return newProblem("forbidden", http.StatusForbidden, ErrCodeForbidden, detail)
}

// NewOperationForbiddenError reports an HTTP API that is switched off for
// the model or the entity.
func NewOperationForbiddenError(detail string) *ProblemDetails {
	return newProblem("operation-forbidden", http.StatusForbidden, ErrCodeOperationForbidden, detail)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return newProblem("not-found", http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

// NewValidationError carries every rejected field. Detail names the first.
func NewValidationError(fields []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	switch n := len(fields); {
	case n == 1:
		detail = fields[0].Field + ": " + fields[0].Message
	case n > 1:
		detail = fmt.Sprintf("%s: %s (and %d more errors)", fields[0].Field, fields[0].Message, n-1)
	}
	p := newProblem("validation", http.StatusUnprocessableEntity, ErrCodeValidation, detail)
	p.Title = "Validation Error"
	p.Errors = fields
	return p
}

func NewBadRequestError(detail string) *ProblemDetails {
	return newProblem("bad-request", http.StatusBadRequest, ErrCodeInvalidInput, detail)
}

func NewConflictError(detail string) *ProblemDetails {
	return newProblem("conflict", http.StatusConflict, ErrCodeConflict, detail)
}

// NewInternalError hides the cause; callers log it.
func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return newProblem("internal", http.StatusInternalServerError, ErrCodeInternal, detail)
}

func NewServiceUnavailableError(detail string) *ProblemDetails {
	return newProblem("unavailable", http.StatusServiceUnavailable, ErrCodeDatabase, detail)
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return newProblem("rate-limited", http.StatusTooManyRequests, ErrCodeRateLimited,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
}
