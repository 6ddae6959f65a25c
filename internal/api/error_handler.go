package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/service"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden, "account not active"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrWorksheetNotFound):
		return http.StatusNotFound, "worksheet not found"
	case errors.Is(err, domain.ErrFeatureNotFound):
		return http.StatusNotFound, "feature not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrWorksheetExists):
		return http.StatusConflict, "worksheet already exists"
	case errors.Is(err, domain.ErrRegistrationClosed),
		errors.Is(err, domain.ErrNoEditableFields),
		errors.Is(err, domain.ErrMissingFile),
		errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, domain.ErrMissingMetadata),
		errors.Is(err, domain.ErrMissingFeatures),
		errors.Is(err, domain.ErrTooManyOperations),
		errors.Is(err, service.ErrPasswordPolicy),
		errors.Is(err, service.ErrPasswordMatch),
		errors.Is(err, service.ErrMissingRequired):
		return http.StatusBadRequest, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
