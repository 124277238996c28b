package sheets_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/sheets"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// getSheetsClient resolves the user's Sheets client after verifying a
// usable credential exists, so a never-connected user gets a reconnect hint.
func getSheetsClient(ctx context.Context, userID string, sc *server.ServerContext) (*sheets.Client, error) {
	if _, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderGSheets); err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderGSheets))
	}
	return sc.SheetsClient(userID)
}

// RegisterSheetsTools registers all Sheets tools with the MCP server.
func RegisterSheetsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	createTool := mcp.NewTool("sheets_create_spreadsheet",
		mcp.WithDescription("Create a new Google Sheets spreadsheet"),
		mcp.WithString("userId",
			mcp.Description("User to create the spreadsheet for. Optional when the request is authenticated."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Spreadsheet title"),
		),
		mcp.WithString("sheetTitles",
			mcp.Description("Comma-separated names for the initial sheets (default: one sheet named 'Sheet1')"),
		),
	)
	s.AddTool(createTool, common.InstrumentedToolHandlerWithProvider(
		"sheets_create_spreadsheet", credential.ProviderGSheets, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateSpreadsheet(ctx, request, sc)
		}))

	getTool := mcp.NewTool("sheets_get_values",
		mcp.WithDescription("Read a cell range from a spreadsheet"),
		mcp.WithString("userId",
			mcp.Description("User whose spreadsheet to read. Optional when the request is authenticated."),
		),
		mcp.WithString("spreadsheetId",
			mcp.Required(),
			mcp.Description("Spreadsheet ID"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("Range in A1 notation, e.g. 'Sheet1!A1:D10'"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithProvider(
		"sheets_get_values", credential.ProviderGSheets, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetValues(ctx, request, sc)
		}))

	updateTool := mcp.NewTool("sheets_update_values",
		mcp.WithDescription("Overwrite a cell range in a spreadsheet"),
		mcp.WithString("userId",
			mcp.Description("User whose spreadsheet to write. Optional when the request is authenticated."),
		),
		mcp.WithString("spreadsheetId",
			mcp.Required(),
			mcp.Description("Spreadsheet ID"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("Range in A1 notation, e.g. 'Sheet1!A1'"),
		),
		mcp.WithString("values",
			mcp.Required(),
			mcp.Description("Rows as a JSON array of arrays, e.g. [[\"Name\",\"Total\"],[\"Q1\",42]]"),
		),
	)
	s.AddTool(updateTool, common.InstrumentedToolHandlerWithProvider(
		"sheets_update_values", credential.ProviderGSheets, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWriteValues(ctx, request, sc, false)
		}))

	appendTool := mcp.NewTool("sheets_append_values",
		mcp.WithDescription("Append rows after the last row of a table"),
		mcp.WithString("userId",
			mcp.Description("User whose spreadsheet to write. Optional when the request is authenticated."),
		),
		mcp.WithString("spreadsheetId",
			mcp.Required(),
			mcp.Description("Spreadsheet ID"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("Table range in A1 notation, e.g. 'Sheet1!A:D'"),
		),
		mcp.WithString("values",
			mcp.Required(),
			mcp.Description("Rows as a JSON array of arrays"),
		),
	)
	s.AddTool(appendTool, common.InstrumentedToolHandlerWithProvider(
		"sheets_append_values", credential.ProviderGSheets, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWriteValues(ctx, request, sc, true)
		}))

	return nil
}

func handleCreateSpreadsheet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; spreadsheet creation is disabled."), nil
	}

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	var sheetTitles []string
	if raw, _ := args["sheetTitles"].(string); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				sheetTitles = append(sheetTitles, name)
			}
		}
	}

	client, err := getSheetsClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.CreateSpreadsheet(ctx, title, sheetTitles)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create spreadsheet: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created spreadsheet %q\n   ID: %s\n   URL: %s\n", info.Title, info.ID, info.URL)
	if len(info.Sheets) > 0 {
		fmt.Fprintf(&b, "   Sheets: %s\n", strings.Join(info.Sheets, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetValues(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}
	readRange, ok := args["range"].(string)
	if !ok || readRange == "" {
		return mcp.NewToolResultError("range is required"), nil
	}

	client, err := getSheetsClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := client.GetValues(ctx, spreadsheetID, readRange)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read values: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("The range is empty."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d row(s) in %s:\n", len(rows), readRange)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		fmt.Fprintf(&b, "%s\n", strings.Join(cells, "\t"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleWriteValues(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, appendRows bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; spreadsheet writes are disabled."), nil
	}

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}
	writeRange, ok := args["range"].(string)
	if !ok || writeRange == "" {
		return mcp.NewToolResultError("range is required"), nil
	}

	values, err := parseValues(args["values"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getSheetsClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result *sheets.UpdateResult
	if appendRows {
		result, err = client.AppendValues(ctx, spreadsheetID, writeRange, values)
	} else {
		result, err = client.UpdateValues(ctx, spreadsheetID, writeRange, values)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to write values: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Updated %d cell(s) in %s.",
		result.UpdatedCells, result.UpdatedRange)), nil
}

// parseValues accepts rows either as a JSON string or as the decoded
// array the MCP transport may already deliver.
func parseValues(raw interface{}) ([][]interface{}, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("values is required")
		}
		var rows [][]interface{}
		if err := json.Unmarshal([]byte(v), &rows); err != nil {
			return nil, fmt.Errorf("invalid values, want a JSON array of arrays: %v", err)
		}
		return rows, nil
	case []interface{}:
		rows := make([][]interface{}, 0, len(v))
		for _, item := range v {
			row, ok := item.([]interface{})
			if !ok {
				return nil, fmt.Errorf("invalid values, want an array of arrays")
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("values is required")
	}
}
