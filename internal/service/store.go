// Package service implements the board: persona registry, message routing,
// turn context and the conversation orchestrator.
package service

import (
	"context"
	"time"

	"github.com/raphaelgruber/boardroom/internal/llm"
	"github.com/raphaelgruber/boardroom/internal/models"
)

// Store persists conversations, messages and personas.
// Implemented by *db.Client.
type Store interface {
	CreateConversation(ctx context.Context, input models.ConversationInput) (*models.Conversation, error)
	// GetConversation returns nil, nil when the conversation does not exist.
	GetConversation(ctx context.Context, id string, q models.MessageQuery) (*models.Conversation, error)
	AppendMessage(ctx context.Context, input models.MessageInput) (*models.Message, error)
	UpdateConversationFlags(ctx context.Context, id string, flags []string) error
	CompleteConversation(ctx context.Context, id, summary string, endedAt time.Time) (*models.Conversation, error)
	ListConversations(ctx context.Context, initiatorID string) ([]models.Conversation, error)

	ListPersonas(ctx context.Context, activeOnly bool) ([]models.Persona, error)
	CreatePersona(ctx context.Context, p models.Persona) error
	UpdatePersonaStatus(ctx context.Context, role models.Role, status models.PersonaStatus) error

	CountAggregate(ctx context.Context, metric string) (int64, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Completer sends one request to the language model.
// Implemented by *llm.Completer.
type Completer interface {
	// Available returns llm.ErrUnavailable or llm.ErrRateLimited when a
	// call would be refused.
	Available() error
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}
