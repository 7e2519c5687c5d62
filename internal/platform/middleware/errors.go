package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// ErrorHandler renders every error as {"error": CODE, "message": ..., "details": ...}.
// Only INTERNAL errors are logged with their cause.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := classify(err)
		if appErr.Code == apperr.CodeInternal {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("internal error")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(appErr.Status)
		} else {
			writeErr = c.JSON(appErr.Status, appErr)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

func classify(err error) *apperr.Error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fromHTTPError(he)
	}
	return apperr.From(err)
}

// fromHTTPError maps echo's own errors (routing, binding, body limit) into
// the application taxonomy.
func fromHTTPError(he *echo.HTTPError) *apperr.Error {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}

	switch he.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return apperr.Validation(msg, nil)
	case http.StatusUnauthorized:
		return apperr.Unauthenticated(msg)
	case http.StatusForbidden:
		return apperr.Forbidden(msg)
	case http.StatusNotFound:
		return &apperr.Error{Status: http.StatusNotFound, Code: apperr.CodeNotFound, Message: msg}
	case http.StatusMethodNotAllowed:
		return &apperr.Error{Status: he.Code, Code: apperr.CodeNotFound, Message: msg}
	case http.StatusConflict:
		return apperr.Conflict(msg)
	case http.StatusRequestEntityTooLarge:
		return &apperr.Error{Status: he.Code, Code: apperr.CodeTooLarge, Message: msg}
	case http.StatusTooManyRequests:
		return apperr.RateLimited(msg)
	}
	if he.Code >= 500 {
		return apperr.Internal(fmt.Errorf("%v", he))
	}
	return &apperr.Error{Status: he.Code, Code: apperr.CodeValidation, Message: msg}
}
