package api

import (
	"errors"
	"net/http"

	"github.com/raphaelgruber/boardroom/internal/db"
	"github.com/raphaelgruber/boardroom/internal/llm"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/service"
)

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var ce *llm.CompletionError
	switch {
	case errors.Is(err, service.ErrConversationNotFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, models.ErrUnknownRole),
		errors.Is(err, models.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &ce), errors.Is(err, llm.ErrFatalAPI), errors.Is(err, llm.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
