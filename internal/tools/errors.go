package tools

import (
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/boardroom/internal/llm"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/raphaelgruber/boardroom/internal/service"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so LLM can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON text content.
func JSONResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", "")
	}
	return TextResult(string(b))
}

// boardError turns an orchestrator error into a tool error with a hint the
// caller can act on.
func boardError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return ErrorResult(err.Error(), "Start a conversation first or check the id")
	case errors.Is(err, models.ErrUnknownMode):
		return ErrorResult(err.Error(), "Use leader, strategist or visionary")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, models.ErrUnknownRole):
		return ErrorResult(err.Error(), "Fix the arguments and retry")
	case errors.Is(err, llm.ErrRateLimited):
		return ErrorResult("Completion budget exhausted", "Retry in a minute")
	case errors.Is(err, llm.ErrUnavailable):
		return ErrorResult("No completion backend configured", "Check the LLM provider settings")
	}
	var ce *llm.CompletionError
	if errors.As(err, &ce) {
		return ErrorResult("Completion failed: "+ce.Error(), "Retry later")
	}
	return ErrorResult("Board operation failed", "Database may be unavailable")
}
