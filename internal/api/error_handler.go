package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepoint/scheduling-api/internal/core/domain"
)

const unexpectedErrorMessage = "An unexpected error occurred."

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	TraceID string              `json:"traceId,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "...", "errors": [...], "traceId": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.ConflictError
		he            *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, errorResponse{
			Message: "One or more validation errors occurred.",
			Errors:  validationErr.Fields,
		}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, errorResponse{Message: notFoundErr.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Message: "resource not found"}
	case errors.As(err, &conflictErr):
		return http.StatusConflict, errorResponse{Message: conflictErr.Message}
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusConflict, errorResponse{Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Message: "invalid credentials"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Message: "invalid token"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Message: "authentication required"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Message: "access forbidden"}
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Message: err.Error()}
	case errors.As(err, &he):
		// Echo's own errors (bind failures, 404 from router, body limit, etc.)
		if he.Code < http.StatusInternalServerError {
			return he.Code, errorResponse{Message: httpErrorMessage(he)}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	traceID := requestID(c)
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", traceID).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{
		Message: unexpectedErrorMessage,
		TraceID: traceID,
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	if he.Message == nil {
		return http.StatusText(he.Code)
	}
	return fmt.Sprintf("%v", he.Message)
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
