package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/quicknotes/internal/apperr"
	"github.com/geocoder89/quicknotes/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Error     string      `json:"error"`
	Code      string      `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, APIError{
		Error:     message,
		Code:      code,
		RequestID: middlewares.RequestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

// RespondAppError maps a service error to its status code. Causes of
// internal errors are logged, never sent.
func RespondAppError(ctx *gin.Context, log *slog.Logger, err error) {
	e := apperr.As(err)
	status := StatusFor(e.Kind)

	if status >= http.StatusInternalServerError {
		log.ErrorContext(ctx.Request.Context(), "request failed",
			"err", err,
			"route", ctx.FullPath(),
			"request_id", middlewares.RequestIDFrom(ctx),
		)
	}

	RespondError(ctx, status, e.Code, e.Message, nil)
}

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindAuth, apperr.KindAuthorization:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
