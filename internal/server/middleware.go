package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxArgLogLen caps logged arguments, in characters.
const maxArgLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
// send_message waits on several completions, so the bar sits well above one.
const slowRequestThreshold = 30 * time.Second

// LoggingMiddleware logs every MCP request with its duration. Tool calls also
// carry the tool name and, when present, the conversation id. Failed tool
// results log at INFO since they are answers the caller sees, not faults.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			duration := time.Since(start)

			attrs := append([]any{
				"method", method,
				"duration_ms", duration.Milliseconds(),
			}, requestAttrs(req)...)

			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				logger.Error("request failed", attrs...)
			case isToolError(result):
				logger.Info("tool returned error", attrs...)
			case duration > slowRequestThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return result, err
		}
	}
}

// requestAttrs describes a request for the log line.
func requestAttrs(req mcp.Request) []any {
	if call, ok := req.(*mcp.CallToolRequest); ok && call != nil && call.Params != nil {
		attrs := []any{"tool", call.Params.Name}
		var target struct {
			ConversationID string `json:"conversation_id"`
		}
		if json.Unmarshal(call.Params.Arguments, &target) == nil && target.ConversationID != "" {
			attrs = append(attrs, "conversation_id", target.ConversationID)
		}
		if len(call.Params.Arguments) > 0 {
			attrs = append(attrs, "args", truncate(string(call.Params.Arguments), maxArgLogLen))
		}
		return attrs
	}
	if params := formatParams(req); params != "" {
		return []any{"params", truncate(params, maxArgLogLen)}
	}
	return nil
}

func isToolError(result mcp.Result) bool {
	r, ok := result.(*mcp.CallToolResult)
	return ok && r != nil && r.IsError
}

func formatParams(req mcp.Request) string {
	if req == nil {
		return ""
	}
	params := req.GetParams()
	if params == nil {
		return ""
	}
	return fmt.Sprintf("%+v", params)
}

// truncate shortens s to maxLen characters, ending in "..." when cut.
// Counts runes so Arabic arguments are never split mid-character.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
