package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/boardroom/internal/service"
)

// StartConversationInput defines the input schema for the start_conversation tool.
type StartConversationInput struct {
	InitiatorID    string   `json:"initiator_id" jsonschema:"Id of the founder opening the conversation"`
	Topic          string   `json:"topic" jsonschema:"Topic of the conversation"`
	TopicLocalized string   `json:"topic_localized,omitempty" jsonschema:"Topic in the founder's language"`
	Type           string   `json:"type,omitempty" jsonschema:"meeting, question, task_discussion, brainstorm or review (default question)"`
	Flags          []string `json:"flags,omitempty" jsonschema:"Initial flags: devils-advocate, board-challenges-founder, pre-mortem"`
}

// NewStartConversationHandler creates the start_conversation tool handler.
func NewStartConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[StartConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StartConversationInput) (
		*mcp.CallToolResult, any, error,
	) {
		in := service.StartInput{
			InitiatorID: input.InitiatorID,
			Topic:       input.Topic,
			Type:        input.Type,
			Flags:       input.Flags,
		}
		if input.TopicLocalized != "" {
			in.TopicLocalized = &input.TopicLocalized
		}

		conv, err := deps.Board.StartConversation(ctx, in)
		if err != nil {
			deps.Logger.Warn("start_conversation failed", "error", err)
			return boardError(err), nil, nil
		}
		return JSONResult(conv), nil, nil
	}
}

// SendMessageInput defines the input schema for the send_message tool.
type SendMessageInput struct {
	ConversationID   string   `json:"conversation_id" jsonschema:"Conversation to post into"`
	Content          string   `json:"content" jsonschema:"The founder's message"`
	AuthorID         string   `json:"author_id,omitempty" jsonschema:"Id of the founder sending the message"`
	TargetPersonaIDs []string `json:"target_persona_ids,omitempty" jsonschema:"Address specific personas by id or role, e.g. cfo"`
	CEOMode          string   `json:"ceo_mode,omitempty" jsonschema:"CEO instruction variant: leader, strategist or visionary"`
	NewFlags         []string `json:"new_flags,omitempty" jsonschema:"Flags to add for the rest of the conversation"`
}

// NewSendMessageHandler creates the send_message tool handler.
// Runs one full turn and returns every reply.
func NewSendMessageHandler(deps *Dependencies) mcp.ToolHandlerFor[SendMessageInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ConversationID == "" {
			return ErrorResult("conversation_id cannot be empty", "Call start_conversation first"), nil, nil
		}
		if input.Content == "" {
			return ErrorResult("Content cannot be empty", "Provide the founder's message"), nil, nil
		}

		result, err := deps.Board.SendMessage(ctx, service.SendInput{
			ConversationID:   input.ConversationID,
			AuthorID:         input.AuthorID,
			Content:          input.Content,
			TargetPersonaIDs: input.TargetPersonaIDs,
			CEOMode:          input.CEOMode,
			NewFlags:         input.NewFlags,
		})
		if err != nil {
			deps.Logger.Warn("send_message failed", "conversation_id", input.ConversationID, "error", err)
			return boardError(err), nil, nil
		}

		deps.Logger.Info("send_message completed",
			"conversation_id", input.ConversationID,
			"replies", len(result.Replies),
			"failed", len(result.Failed))
		return JSONResult(result), nil, nil
	}
}

// ConversationIDInput identifies one conversation.
type ConversationIDInput struct {
	ConversationID  string `json:"conversation_id" jsonschema:"Conversation id"`
	IncludeMessages bool   `json:"include_messages,omitempty" jsonschema:"Include the full transcript (get_conversation only)"`
}

// NewEndConversationHandler creates the end_conversation tool handler.
func NewEndConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[ConversationIDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ConversationIDInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ConversationID == "" {
			return ErrorResult("conversation_id cannot be empty", ""), nil, nil
		}
		conv, err := deps.Board.EndConversation(ctx, input.ConversationID)
		if err != nil {
			deps.Logger.Warn("end_conversation failed", "conversation_id", input.ConversationID, "error", err)
			return boardError(err), nil, nil
		}
		return JSONResult(conv), nil, nil
	}
}

// NewGetConversationHandler creates the get_conversation tool handler.
func NewGetConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[ConversationIDInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ConversationIDInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ConversationID == "" {
			return ErrorResult("conversation_id cannot be empty", ""), nil, nil
		}
		conv, err := deps.Board.GetConversation(ctx, input.ConversationID, input.IncludeMessages)
		if err != nil {
			return boardError(err), nil, nil
		}
		return JSONResult(conv), nil, nil
	}
}
