package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/calendar"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// RegisterEventTools registers the event tools with the MCP server.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List calendar events in a time range"),
		mcp.WithString("userId",
			mcp.Description("User whose calendar to read. Optional when the request is authenticated."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Range start, RFC3339 (default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Range end, RFC3339 (default: 7 days from now)"),
		),
		mcp.WithString("query",
			mcp.Description("Free-text search filter"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_list_events", credential.ProviderGCal, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get a single calendar event by ID"),
		mcp.WithString("userId",
			mcp.Description("User whose calendar to read. Optional when the request is authenticated."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("Event ID"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_get_event", credential.ProviderGCal, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a calendar event"),
		mcp.WithString("userId",
			mcp.Description("User whose calendar to write. Optional when the request is authenticated."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time, RFC3339"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time, RFC3339"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee email addresses"),
		),
		mcp.WithBoolean("addMeetLink",
			mcp.Description("Attach an auto-generated Google Meet link"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_create_event", credential.ProviderGCal, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update fields of an existing calendar event"),
		mcp.WithString("userId",
			mcp.Description("User whose calendar to write. Optional when the request is authenticated."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("Event ID"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title"),
		),
		mcp.WithString("start",
			mcp.Description("New start time, RFC3339"),
		),
		mcp.WithString("end",
			mcp.Description("New end time, RFC3339"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee email addresses (replaces the current list)"),
		),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_update_event", credential.ProviderGCal, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("userId",
			mcp.Description("User whose calendar to write. Optional when the request is authenticated."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("Event ID"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithProvider(
		"calendar_delete_event", credential.ProviderGCal, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarID := stringArg(args, "calendarId", "primary")
	timeMin := time.Now()
	timeMax := timeMin.Add(7 * 24 * time.Hour)
	if raw, ok := args["timeMin"].(string); ok && raw != "" {
		if timeMin, err = time.Parse(time.RFC3339, raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid timeMin: %v", err)), nil
		}
	}
	if raw, ok := args["timeMax"].(string); ok && raw != "" {
		if timeMax, err = time.Parse(time.RFC3339, raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid timeMax: %v", err)), nil
		}
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.ListEvents(ctx, calendarID, timeMin, timeMax, stringArg(args, "query", ""), 50)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No events found in the given range."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s):\n\n", len(events))
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatEvent(event))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.GetEvent(ctx, stringArg(args, "calendarId", "primary"), eventID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get event: %v", err)), nil
	}
	return mcp.NewToolResultText(formatEvent(*event)), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; event creation is disabled."), nil
	}

	summary, _ := args["summary"].(string)
	if summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	start, err := parseTimeArg(args, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := parseTimeArg(args, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input := calendar.EventInput{
		Summary:     summary,
		Description: stringArg(args, "description", ""),
		Location:    stringArg(args, "location", ""),
		Start:       start,
		End:         end,
	}
	if raw := stringArg(args, "attendees", ""); raw != "" {
		for _, email := range strings.Split(raw, ",") {
			if email = strings.TrimSpace(email); email != "" {
				input.Attendees = append(input.Attendees, email)
			}
		}
	}
	if addMeet, ok := args["addMeetLink"].(bool); ok {
		input.AddMeetLink = addMeet
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := client.CreateEvent(ctx, stringArg(args, "calendarId", "primary"), input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}
	return mcp.NewToolResultText("Created event:\n" + formatEvent(*created)), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; event updates are disabled."), nil
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	input := calendar.EventInput{
		Summary:     stringArg(args, "summary", ""),
		Description: stringArg(args, "description", ""),
		Location:    stringArg(args, "location", ""),
	}
	if raw := stringArg(args, "start", ""); raw != "" {
		if input.Start, err = time.Parse(time.RFC3339, raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start, want RFC3339: %v", err)), nil
		}
	}
	if raw := stringArg(args, "end", ""); raw != "" {
		if input.End, err = time.Parse(time.RFC3339, raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end, want RFC3339: %v", err)), nil
		}
	}
	if raw := stringArg(args, "attendees", ""); raw != "" {
		for _, email := range strings.Split(raw, ",") {
			if email = strings.TrimSpace(email); email != "" {
				input.Attendees = append(input.Attendees, email)
			}
		}
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := client.UpdateEvent(ctx, stringArg(args, "calendarId", "primary"), eventID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}
	return mcp.NewToolResultText("Updated event:\n" + formatEvent(*updated)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; event deletion is disabled."), nil
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := getCalendarClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEvent(ctx, stringArg(args, "calendarId", "primary"), eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted event %s.", eventID)), nil
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func parseTimeArg(args map[string]interface{}, key string) (time.Time, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, want RFC3339: %v", key, err)
	}
	return t, nil
}

func formatEvent(event calendar.EventSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", event.Summary)
	fmt.Fprintf(&b, "   ID: %s\n", event.ID)
	fmt.Fprintf(&b, "   When: %s - %s\n",
		event.Start.Format(time.RFC3339), event.End.Format(time.RFC3339))
	if event.Location != "" {
		fmt.Fprintf(&b, "   Where: %s\n", event.Location)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&b, "   Organizer: %s\n", event.Organizer)
	}
	if len(event.Attendees) > 0 {
		var emails []string
		for _, att := range event.Attendees {
			emails = append(emails, att.Email)
		}
		fmt.Fprintf(&b, "   Attendees: %s\n", strings.Join(emails, ", "))
	}
	if event.MeetLink != "" {
		fmt.Fprintf(&b, "   Meet: %s\n", event.MeetLink)
	}
	return b.String()
}
