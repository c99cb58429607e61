package models

import (
	"fmt"
	"strings"
	"time"
)

// ConversationType classifies what a conversation is for.
type ConversationType string

const (
	ConversationMeeting        ConversationType = "meeting"
	ConversationQuestion       ConversationType = "question"
	ConversationTaskDiscussion ConversationType = "task_discussion"
	ConversationBrainstorm     ConversationType = "brainstorm"
	ConversationReview         ConversationType = "review"
)

// ParseConversationType parses a conversation type. Empty means question.
func ParseConversationType(s string) (ConversationType, error) {
	t := ConversationType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch t {
	case "":
		return ConversationQuestion, nil
	case ConversationMeeting, ConversationQuestion, ConversationTaskDiscussion,
		ConversationBrainstorm, ConversationReview:
		return t, nil
	}
	return "", fmt.Errorf("unknown conversation type: %q", s)
}

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationArchived  ConversationStatus = "archived"
)

// User is the display record of a human founder.
type User struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Conversation is one thread of interaction between the founder and the board.
// Summary is set iff Status is completed.
type Conversation struct {
	ID             string             `json:"id"`
	Topic          string             `json:"topic"`
	TopicLocalized *string            `json:"topic_localized,omitempty"`
	Type           ConversationType   `json:"type"`
	Status         ConversationStatus `json:"status"`
	InitiatorID    string             `json:"initiator_id"`
	Initiator      *User              `json:"initiator,omitempty"`
	ActiveFlags    []string           `json:"active_flags"`
	Summary        *string            `json:"summary,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	EndedAt        *time.Time         `json:"ended_at,omitempty"`
	Messages       []Message          `json:"messages,omitempty"`
}

// ConversationInput is the input structure for creating conversations.
type ConversationInput struct {
	Topic          string           `json:"topic"`
	TopicLocalized *string          `json:"topic_localized,omitempty"`
	Type           ConversationType `json:"type"`
	InitiatorID    string           `json:"initiator_id"`
	Flags          []string         `json:"flags,omitempty"`
}

// AuthorRole identifies who wrote a message.
type AuthorRole string

const (
	AuthorUser      AuthorRole = "user"
	AuthorAssistant AuthorRole = "assistant"
	AuthorSystem    AuthorRole = "system"
)

// TokenCount records completion token consumption.
type TokenCount struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Message is one immutable utterance within a conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	AuthorRole     AuthorRole  `json:"author_role"`
	AuthorID       string      `json:"author_id,omitempty"`
	Content        string      `json:"content"`
	ModelTier      *ModelTier  `json:"model_tier,omitempty"`
	TokensUsed     *TokenCount `json:"tokens_used,omitempty"`
	ToolsInvoked   []string    `json:"tools_invoked,omitempty"`
	CEOMode        *CEOMode    `json:"ceo_mode,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// MessageInput is the input structure for appending messages.
type MessageInput struct {
	ConversationID string
	AuthorRole     AuthorRole
	AuthorID       string
	Content        string
	ModelTier      *ModelTier
	TokensUsed     *TokenCount
	ToolsInvoked   []string
	CEOMode        *CEOMode
}

// SortOrder orders messages by creation time.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// MessageQuery controls how messages are loaded alongside a conversation.
// Limit <= 0 loads every message.
type MessageQuery struct {
	Include bool
	Limit   int
	Order   SortOrder
}
