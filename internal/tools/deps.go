// Package tools provides MCP tool handlers and registration.
package tools

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/service"
)

// Board is the orchestrator surface the tools drive.
// Implemented by *service.BoardService.
type Board interface {
	StartConversation(ctx context.Context, in service.StartInput) (*models.Conversation, error)
	SendMessage(ctx context.Context, in service.SendInput) (*models.TurnResult, error)
	EndConversation(ctx context.Context, id string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string, includeMessages bool) (*models.Conversation, error)
	ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error)
}

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Board  Board
	Logger *slog.Logger
}
