package airtable_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/airtable"
	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// getAirtableClient builds an Airtable client for the user's stored token.
// The client is a thin HTTP wrapper, so it is constructed per call.
func getAirtableClient(ctx context.Context, userID string, sc *server.ServerContext) (*airtable.Client, error) {
	cred, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderAirtable)
	if err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderAirtable))
	}
	return airtable.NewClient(cred.AccessToken), nil
}

// RegisterAirtableTools registers all Airtable tools with the MCP server.
func RegisterAirtableTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	basesTool := mcp.NewTool("airtable_list_bases",
		mcp.WithDescription("List Airtable bases the user can access"),
		mcp.WithString("userId",
			mcp.Description("User whose bases to list. Optional when the request is authenticated."),
		),
		mcp.WithString("offset",
			mcp.Description("Continuation offset from a previous listing"),
		),
	)
	s.AddTool(basesTool, common.InstrumentedToolHandlerWithProvider(
		"airtable_list_bases", credential.ProviderAirtable, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListBases(ctx, request, sc)
		}))

	recordsTool := mcp.NewTool("airtable_list_records",
		mcp.WithDescription("List records from an Airtable table"),
		mcp.WithString("userId",
			mcp.Description("User whose base to read. Optional when the request is authenticated."),
		),
		mcp.WithString("baseId",
			mcp.Required(),
			mcp.Description("Base ID, e.g. appXXXXXXXXXXXXXX"),
		),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name or ID"),
		),
		mcp.WithNumber("maxRecords",
			mcp.Description("Maximum records to return (default 20, max 100)"),
		),
		mcp.WithString("view",
			mcp.Description("View to read from"),
		),
		mcp.WithString("filterByFormula",
			mcp.Description("Airtable formula filter, e.g. {Status}='Done'"),
		),
		mcp.WithString("offset",
			mcp.Description("Continuation offset from a previous listing"),
		),
	)
	s.AddTool(recordsTool, common.InstrumentedToolHandlerWithProvider(
		"airtable_list_records", credential.ProviderAirtable, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListRecords(ctx, request, sc)
		}))

	createTool := mcp.NewTool("airtable_create_record",
		mcp.WithDescription("Create a record in an Airtable table"),
		mcp.WithString("userId",
			mcp.Description("User whose base to write. Optional when the request is authenticated."),
		),
		mcp.WithString("baseId",
			mcp.Required(),
			mcp.Description("Base ID"),
		),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name or ID"),
		),
		mcp.WithString("fields",
			mcp.Required(),
			mcp.Description("Record fields as a JSON object, e.g. {\"Name\":\"Task\",\"Status\":\"Todo\"}"),
		),
	)
	s.AddTool(createTool, common.InstrumentedToolHandlerWithProvider(
		"airtable_create_record", credential.ProviderAirtable, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateRecord(ctx, request, sc)
		}))

	return nil
}

func handleListBases(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getAirtableClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bases, nextOffset, err := client.ListBases(ctx, stringArg(args, "offset", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list bases: %v", err)), nil
	}
	if len(bases) == 0 {
		return mcp.NewToolResultText("No bases found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d base(s):\n\n", len(bases))
	for i, base := range bases {
		fmt.Fprintf(&b, "%d. %s\n   ID: %s\n   Access: %s\n",
			i+1, base.Name, base.ID, base.PermissionLevel)
	}
	if nextOffset != "" {
		fmt.Fprintf(&b, "\nMore results available, pass offset=%s", nextOffset)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleListRecords(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	baseID, ok := args["baseId"].(string)
	if !ok || baseID == "" {
		return mcp.NewToolResultError("baseId is required"), nil
	}
	table, ok := args["table"].(string)
	if !ok || table == "" {
		return mcp.NewToolResultError("table is required"), nil
	}

	opts := &airtable.ListOptions{
		MaxRecords:    intArg(args, "maxRecords", 20),
		View:          stringArg(args, "view", ""),
		FilterFormula: stringArg(args, "filterByFormula", ""),
		Offset:        stringArg(args, "offset", ""),
	}
	if opts.MaxRecords > 100 {
		opts.MaxRecords = 100
	}

	client, err := getAirtableClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, nextOffset, err := client.ListRecords(ctx, baseID, table, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list records: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No records found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d record(s) in %s:\n\n", len(records), table)
	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %s\n%s", i+1, rec.ID, formatFields(rec.Fields))
	}
	if nextOffset != "" {
		fmt.Fprintf(&b, "\nMore results available, pass offset=%s", nextOffset)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleCreateRecord(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; record creation is disabled."), nil
	}

	baseID, ok := args["baseId"].(string)
	if !ok || baseID == "" {
		return mcp.NewToolResultError("baseId is required"), nil
	}
	table, ok := args["table"].(string)
	if !ok || table == "" {
		return mcp.NewToolResultError("table is required"), nil
	}

	fields, err := parseFields(args["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getAirtableClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := client.CreateRecord(ctx, baseID, table, fields)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create record: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created record %s in %s.\n%s",
		rec.ID, table, formatFields(rec.Fields))), nil
}

// parseFields accepts fields either as a JSON string or as the decoded
// object the MCP transport may already deliver.
func parseFields(raw interface{}) (map[string]any, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("fields is required")
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(v), &fields); err != nil {
			return nil, fmt.Errorf("invalid fields, want a JSON object: %v", err)
		}
		return fields, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("fields is required")
	}
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "   %s: %v\n", k, fields[k])
	}
	return b.String()
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	if value, ok := args[key].(float64); ok && value > 0 {
		return int(value)
	}
	return fallback
}
