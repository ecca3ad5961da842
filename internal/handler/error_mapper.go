package handler

import (
	"errors"

	"github.com/forgo/odmapi/internal/database"
	"github.com/forgo/odmapi/internal/model"
	"github.com/forgo/odmapi/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Unknown errors map to 500 with the cause withheld.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var fieldErr *service.FieldError

	switch {
	// ===== Not Found → 404 =====
	case errors.Is(err, service.ErrModelNotRegistered):
		return model.NewNotFoundError("model")
	case errors.Is(err, service.ErrEntityNotFound):
		return model.NewNotFoundError("entity")

	// ===== Capability → 403 =====
	case errors.Is(err, service.ErrForbidden):
		return model.NewForbiddenError(service.ErrForbidden.Error())
	case errors.Is(err, service.ErrOperationForbidden):
		return model.NewOperationForbiddenError(service.ErrOperationForbidden.Error())

	// ===== Field Errors → 422 =====
	case errors.As(err, &fieldErr):
		msg := fieldErr.Err.Error()
		if fieldErr.Detail != "" {
			msg += ": " + fieldErr.Detail
		}
		return model.NewValidationError([]model.FieldError{{Field: fieldErr.Field, Message: msg}})

	// ===== Malformed Input → 400 =====
	case errors.Is(err, service.ErrInvalidParameter),
		errors.Is(err, errBadRequestBody):
		return model.NewBadRequestError(err.Error())

	// ===== Storage Unavailable → 503 =====
	case errors.Is(err, database.ErrConnection):
		return model.NewServiceUnavailableError("storage backend is unavailable")

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
