package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusOf(err error) int {
	switch entities.KindOf(err) {
	case entities.ErrValidation:
		return http.StatusBadRequest
	case entities.ErrForbidden:
		return http.StatusForbidden
	case entities.ErrNotFound:
		return http.StatusNotFound
	case entities.ErrInvalidState, entities.ErrConflict, entities.ErrAlreadyProcessed:
		return http.StatusConflict
	case entities.ErrGatewayFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes workflow errors as {"error": code, "message": text}.
func HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := log.FromContext(c.Request().Context()).
		WithField("path", c.Request().URL.Path).
		WithError(err)

	var (
		status int
		body   ErrorResponse
	)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		body = ErrorResponse{
			Error:   "http_error",
			Message: http.StatusText(status),
		}
		if msg, ok := httpErr.Message.(string); ok {
			body.Message = msg
		}
		if status == http.StatusUnauthorized {
			body.Error = "unauthorized"
		}
	} else {
		status = statusOf(err)
		body = ErrorResponse{
			Error:   entities.CodeOf(err),
			Message: err.Error(),
		}
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request handling error")
		if status == http.StatusInternalServerError {
			body.Message = "internal error"
		}
	default:
		logger.WithField("status", status).Info("Request rejected")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		logger.WithField("write_error", writeErr).Error("Failed to write error response")
	}
}
