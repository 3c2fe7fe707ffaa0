package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/domain"
)

// AuthRedirect is where clients are sent when they are not signed in with
// the role a screen requires.
const AuthRedirect = "/auth"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes and renders {"error": "..."}. 401 responses also
// carry {"redirect": "/auth"}. Unexpected errors are logged and hidden.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		resp := errorResponse{Error: msg}
		if code == http.StatusUnauthorized {
			resp.Redirect = AuthRedirect
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrAppointmentNotFound):
		return http.StatusNotFound, "appointment not found"
	case errors.Is(err, domain.ErrAvailabilityNotFound):
		return http.StatusNotFound, "availability not set"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrChatUnavailable):
		return http.StatusConflict, domain.ErrChatUnavailable.Error()
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, domain.ErrEmailExists.Error()
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrStoreConflict):
		log.Warn().Err(err).Str("path", c.Path()).Msg("store contention")
		return http.StatusConflict, "concurrent update, please retry"
	case errors.Is(err, domain.ErrCorruptRecord):
		log.Error().Err(err).Str("path", c.Path()).Msg("corrupt record in store")
		return http.StatusInternalServerError, "internal server error"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
