package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claudemarjean/Ivony/internal/infra/backend"
	"github.com/claudemarjean/Ivony/internal/transport/http/middleware"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

const MessageTrackingDisabled = "Tracking disabled"

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// A case with an empty message answers with the error's own text.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			msg := cs.Message
			if msg == "" {
				msg = err.Error()
			}
			c.JSON(cs.Status, NewErrorResponse(c, msg))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// consoleErrorCases covers the errors every console use case can return. Validation, lockout
// and remote messages are already safe to show.
var consoleErrorCases = []ErrorCase{
	{Err: usecase.ErrValidation, Status: http.StatusBadRequest},
	{Err: usecase.ErrNotAuthenticated, Status: http.StatusUnauthorized, Message: middleware.MessageAuthRequired},
	{Err: usecase.ErrSessionExpired, Status: http.StatusUnauthorized, Message: middleware.MessageSessionExpired},
	{Err: usecase.ErrLockedOut, Status: http.StatusTooManyRequests},
	{Err: usecase.ErrTrackingDisabled, Status: http.StatusServiceUnavailable, Message: MessageTrackingDisabled},
	{Err: usecase.ErrRemote, Status: http.StatusBadGateway},
}

func respondConsoleError(c *gin.Context, err error) {
	if !errors.Is(err, usecase.ErrValidation) {
		_ = c.Error(err)
	}
	RespondWithMappedError(c, err, consoleErrorCases, http.StatusInternalServerError, backend.MessageGeneric)
}
