package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// RegisterCalendarListTools registers the calendar-list and availability
// tools with the MCP server.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List the calendars the user has access to"),
		mcp.WithString("userId",
			mcp.Description("User whose calendars to list. Optional when the request is authenticated."),
		),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_list_calendars", credential.ProviderGCal, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	freeBusyTool := mcp.NewTool("calendar_free_busy",
		mcp.WithDescription("Query busy intervals for one or more calendars in a time range"),
		mcp.WithString("userId",
			mcp.Description("User whose availability to query. Optional when the request is authenticated."),
		),
		mcp.WithString("calendarIds",
			mcp.Description("Comma-separated calendar IDs (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Range start, RFC3339"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("Range end, RFC3339"),
		),
	)
	s.AddTool(freeBusyTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_free_busy", credential.ProviderGCal, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFreeBusy(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}
	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&b, "%d. %s\n   ID: %s\n", i+1, cal.Summary, cal.ID)
		if cal.Primary {
			b.WriteString("   Primary: yes\n")
		}
		if cal.TimeZone != "" {
			fmt.Fprintf(&b, "   Time zone: %s\n", cal.TimeZone)
		}
		if cal.AccessRole != "" {
			fmt.Fprintf(&b, "   Access: %s\n", cal.AccessRole)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timeMin, err := parseTimeArg(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := parseTimeArg(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarIDs := []string{"primary"}
	if raw := stringArg(args, "calendarIds", ""); raw != "" {
		calendarIDs = calendarIDs[:0]
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				calendarIDs = append(calendarIDs, id)
			}
		}
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := client.QueryFreeBusy(ctx, timeMin, timeMax, calendarIDs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query availability: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Availability from %s to %s:\n\n",
		timeMin.Format(time.RFC3339), timeMax.Format(time.RFC3339))
	for _, info := range infos {
		fmt.Fprintf(&b, "%s:\n", info.Calendar)
		if len(info.Errors) > 0 {
			fmt.Fprintf(&b, "   Errors: %s\n", strings.Join(info.Errors, "; "))
			continue
		}
		if len(info.Busy) == 0 {
			b.WriteString("   Free for the whole range.\n")
			continue
		}
		for _, busy := range info.Busy {
			fmt.Fprintf(&b, "   Busy %s - %s\n",
				busy.Start.Format(time.RFC3339), busy.End.Format(time.RFC3339))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
