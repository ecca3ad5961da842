package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Error() / WriteJSON
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("entity")
	msg := pd.Error()

	for _, want := range []string{"404", "Not Found", "entity not found"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message should contain %q, got: %s", want, msg)
		}
	}
}

func TestProblemDetails_WriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewValidationError([]FieldError{{Field: "title", Message: "invalid field"}}).
		WithInstance("/odm/entity/article").
		WriteJSON(rec)

	if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", got)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["instance"] != "/odm/entity/article" {
		t.Errorf("expected instance to be set, got %v", body["instance"])
	}
	errs, ok := body["errors"].([]interface{})
	if !ok || len(errs) != 1 {
		t.Fatalf("expected one field error, got %v", body["errors"])
	}
}

func TestProblemDetails_JSON_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&ProblemDetails{Type: "t", Title: "x", Status: 400})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"detail", "instance", "errors", "code"} {
		if strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("expected %s to be omitted, got %s", key, data)
		}
	}
}

// ============================================================================
// Constructors
// ============================================================================

func TestConstructors_StatusAndCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		code   ErrorCode
	}{
		{"forbidden", NewForbiddenError("no"), http.StatusForbidden, ErrCodeForbidden},
		{"operation forbidden", NewOperationForbiddenError("off"), http.StatusForbidden, ErrCodeOperationForbidden},
		{"not found", NewNotFoundError("model"), http.StatusNotFound, ErrCodeNotFound},
		{"validation", NewValidationError(nil), http.StatusUnprocessableEntity, ErrCodeValidation},
		{"bad request", NewBadRequestError("skip"), http.StatusBadRequest, ErrCodeInvalidInput},
		{"conflict", NewConflictError("busy"), http.StatusConflict, ErrCodeConflict},
		{"internal", NewInternalError(""), http.StatusInternalServerError, ErrCodeInternal},
		{"unavailable", NewServiceUnavailableError("db"), http.StatusServiceUnavailable, ErrCodeDatabase},
		{"rate limited", NewRateLimitError(3), http.StatusTooManyRequests, ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.pd.Status != tt.status {
				t.Errorf("status = %d, want %d", tt.pd.Status, tt.status)
			}
			if tt.pd.Code != tt.code {
				t.Errorf("code = %d, want %d", tt.pd.Code, tt.code)
			}
			if !strings.HasPrefix(tt.pd.Type, problemBase) {
				t.Errorf("type %q should start with %q", tt.pd.Type, problemBase)
			}
		})
	}
}

func TestNewValidationError_SummarizesCount(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	})
	if pd.Detail != "a: bad (and 1 more errors)" {
		t.Errorf("unexpected detail: %q", pd.Detail)
	}
	if NewValidationError(nil).Detail != "One or more fields failed validation" {
		t.Error("expected default detail for empty errors")
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	if got := NewInternalError("").Detail; got != "An unexpected error occurred" {
		t.Errorf("unexpected default detail: %q", got)
	}
}
