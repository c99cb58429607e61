package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListPersonasInput defines the input schema for the list_personas tool.
type ListPersonasInput struct {
	ActiveOnly bool `json:"active_only,omitempty" jsonschema:"Only personas currently answering"`
}

// NewListPersonasHandler creates the list_personas tool handler.
// One line per seat: role, display name, localized name, tier, status.
func NewListPersonasHandler(deps *Dependencies) mcp.ToolHandlerFor[ListPersonasInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListPersonasInput) (
		*mcp.CallToolResult, any, error,
	) {
		personas, err := deps.Board.ListPersonas(ctx, input.ActiveOnly)
		if err != nil {
			deps.Logger.Error("list personas failed", "error", err)
			return boardError(err), nil, nil
		}
		if len(personas) == 0 {
			return TextResult("No personas seated"), nil, nil
		}

		lines := make([]string, 0, len(personas))
		for _, p := range personas {
			lines = append(lines, fmt.Sprintf("%s (%s): %s / %s [%s, %s]",
				p.Role, p.ID, p.DisplayName, p.LocalizedName, p.ModelTier, p.Status))
		}
		return TextResult(FormatResults(lines)), nil, nil
	}
}
