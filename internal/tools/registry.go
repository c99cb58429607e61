package tools

import (
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_conversation",
		Description: "Open a board conversation on a topic",
	}, NewStartConversationHandler(deps))

	// Turns can take a while: every routed persona answers before this returns
	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Post a founder message and collect the board's replies",
	}, NewSendMessageHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "end_conversation",
		Description: "Summarize a conversation and mark it completed",
	}, NewEndConversationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_conversation",
		Description: "Retrieve a conversation, optionally with its transcript",
	}, NewGetConversationHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_personas",
		Description: "List the board seats with their tier and status",
	}, NewListPersonasHandler(deps))
}

// FormatResults joins items with newlines for list output.
func FormatResults(items []string) string {
	return strings.Join(items, "\n")
}
