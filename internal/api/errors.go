// errors.go - Maps upload and fetch failures onto HTTP responses
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/uploadkit"
	"github.com/gobeaver/uploadkit/filevalidator"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
}

// NewUnknownPolicyError creates a 400 error for a policy name that is not configured
func NewUnknownPolicyError(name string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "UNKNOWN_POLICY",
		Message: fmt.Sprintf("unknown upload policy: %s", name),
	}
}

// FromError converts pipeline and fetcher errors into an APIError. Only the
// client-safe message of an uploadkit error is exposed.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	msg := uploadkit.PublicMessage(err)
	switch {
	case errors.Is(err, uploadkit.ErrTooLarge):
		return &APIError{Status: http.StatusRequestEntityTooLarge, Code: "FILE_TOO_LARGE", Message: msg}
	case errors.Is(err, uploadkit.ErrTooManyFiles):
		return &APIError{Status: http.StatusBadRequest, Code: "TOO_MANY_FILES", Message: msg}
	case errors.Is(err, uploadkit.ErrValidation):
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "VALIDATION_FAILED",
			Message: msg,
			Details: string(filevalidator.GetErrorType(err)),
		}
	case errors.Is(err, uploadkit.ErrForbiddenHost):
		return &APIError{Status: http.StatusBadRequest, Code: "FORBIDDEN_HOST", Message: msg}
	case errors.Is(err, uploadkit.ErrInvalidInput):
		return &APIError{Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: msg}
	case errors.Is(err, uploadkit.ErrFetch):
		apiErr = &APIError{Status: http.StatusBadGateway, Code: "FETCH_FAILED", Message: msg}
		var e *uploadkit.Error
		if errors.As(err, &e) && e.StatusCode != 0 {
			apiErr.Details = fmt.Sprintf("upstream status %d", e.StatusCode)
		}
		return apiErr
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &APIError{Status: http.StatusRequestTimeout, Code: "REQUEST_TIMEOUT", Message: "request timed out"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &APIError{Status: he.Code, Code: "HTTP_ERROR", Message: fmt.Sprintf("%v", he.Message)}
	}

	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "UNKNOWN_ERROR",
		Message: "An unexpected error occurred",
	}
}

// NewErrorHandler returns an echo.HTTPErrorHandler that renders APIError
// JSON and logs server-side failures.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(logger)
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := FromError(err)
		attrs := []any{
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", apiErr.Status,
			"code", apiErr.Code,
			"error", err,
		}
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Info("request rejected", attrs...)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, apiErr)
	}
}
