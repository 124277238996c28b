package calendar_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/calendar"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// getCalendarClient resolves the user's Calendar client after verifying a
// usable credential exists. The explicit credential check produces a
// reconnect hint instead of a raw API error when the user never connected.
func getCalendarClient(ctx context.Context, userID string, sc *server.ServerContext) (*calendar.Client, error) {
	if _, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderGCal); err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderGCal))
	}
	return sc.CalendarClient(userID)
}

// RegisterCalendarTools registers all Calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("register event tools: %w", err)
	}
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("register calendar list tools: %w", err)
	}
	return nil
}
