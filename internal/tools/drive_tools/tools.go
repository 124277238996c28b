package drive_tools

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/drive"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// downloadLimit caps how much file content a tool returns to the agent.
const downloadLimit = 256 * 1024

// getDriveClient resolves the user's Drive client after verifying a usable
// credential exists, so a never-connected user gets a reconnect hint.
func getDriveClient(ctx context.Context, userID string, sc *server.ServerContext) (*drive.Client, error) {
	if _, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderGDrive); err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderGDrive))
	}
	return sc.DriveClient(userID)
}

// RegisterDriveTools registers all Drive tools with the MCP server.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("drive_list_files",
		mcp.WithDescription("List Drive files, optionally filtered with Drive search syntax"),
		mcp.WithString("userId",
			mcp.Description("User whose Drive to read. Optional when the request is authenticated."),
		),
		mcp.WithString("query",
			mcp.Description("Drive search query, e.g. \"mimeType='application/pdf'\""),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum files to return (default 20, max 100)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Continuation token from a previous listing"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithProvider(
		"drive_list_files", credential.ProviderGDrive, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFiles(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("drive_search_files",
		mcp.WithDescription("Search Drive files by name"),
		mcp.WithString("userId",
			mcp.Description("User whose Drive to search. Optional when the request is authenticated."),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name fragment to search for"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithProvider(
		"drive_search_files", credential.ProviderGDrive, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchFiles(ctx, request, sc)
		}))

	getTool := mcp.NewTool("drive_get_file",
		mcp.WithDescription("Get Drive file metadata, optionally with its content"),
		mcp.WithString("userId",
			mcp.Description("User whose Drive to read. Optional when the request is authenticated."),
		),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("File ID"),
		),
		mcp.WithBoolean("includeContent",
			mcp.Description("Also download the file content (text files only, truncated at 256 KiB)"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithProvider(
		"drive_get_file", credential.ProviderGDrive, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFile(ctx, request, sc)
		}))

	uploadTool := mcp.NewTool("drive_upload_file",
		mcp.WithDescription("Upload a text file to Drive"),
		mcp.WithString("userId",
			mcp.Description("User whose Drive to write. Optional when the request is authenticated."),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("File name"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("File content"),
		),
		mcp.WithString("parentFolderId",
			mcp.Description("Folder to place the file in (default: Drive root)"),
		),
		mcp.WithString("mimeType",
			mcp.Description("Content MIME type (default: detected by Drive)"),
		),
	)
	s.AddTool(uploadTool, common.InstrumentedToolHandlerWithProvider(
		"drive_upload_file", credential.ProviderGDrive, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUploadFile(ctx, request, sc)
		}))

	folderTool := mcp.NewTool("drive_create_folder",
		mcp.WithDescription("Create a Drive folder"),
		mcp.WithString("userId",
			mcp.Description("User whose Drive to write. Optional when the request is authenticated."),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Folder name"),
		),
		mcp.WithString("parentFolderId",
			mcp.Description("Parent folder (default: Drive root)"),
		),
	)
	s.AddTool(folderTool, common.InstrumentedToolHandlerWithProvider(
		"drive_create_folder", credential.ProviderGDrive, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateFolder(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("drive_delete_file",
		mcp.WithDescription("Move a Drive file or folder to the trash"),
		mcp.WithString("userId",
			mcp.Description("User whose Drive to write. Optional when the request is authenticated."),
		),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("File ID"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandlerWithProvider(
		"drive_delete_file", credential.ProviderGDrive, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteFile(ctx, request, sc)
		}))

	return nil
}

func handleListFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := &drive.ListOptions{
		Query:      stringArg(args, "query", ""),
		PageToken:  stringArg(args, "pageToken", ""),
		MaxResults: intArg(args, "maxResults", 20),
		OrderBy:    "folder,modifiedTime desc,name",
	}
	if opts.MaxResults > 100 {
		opts.MaxResults = 100
	}

	client, err := getDriveClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, nextPage, err := client.ListFiles(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list files: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("No files found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s):\n\n", len(files))
	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatFile(f))
	}
	if nextPage != "" {
		fmt.Fprintf(&b, "\nMore results available, pass pageToken=%s", nextPage)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSearchFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	client, err := getDriveClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := client.SearchFiles(ctx, name, 25)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search files: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No files matching %q.", name)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s) matching %q:\n\n", len(files), name)
	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatFile(f))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := getDriveClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.GetFile(ctx, fileID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get file: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(formatFile(info))

	if include, _ := args["includeContent"].(bool); include && !info.IsFolder() {
		rc, err := client.DownloadFile(ctx, fileID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to download file: %v", err)), nil
		}
		defer rc.Close()

		content, err := io.ReadAll(io.LimitReader(rc, downloadLimit))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read file content: %v", err)), nil
		}
		b.WriteString("\nContent:\n")
		b.Write(content)
		if len(content) == downloadLimit {
			b.WriteString("\n[truncated]")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleUploadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; uploads are disabled."), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return mcp.NewToolResultError("content is required"), nil
	}

	opts := &drive.UploadOptions{
		MimeType: stringArg(args, "mimeType", ""),
	}
	if parent := stringArg(args, "parentFolderId", ""); parent != "" {
		opts.ParentFolders = []string{parent}
	}

	client, err := getDriveClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.UploadFile(ctx, name, strings.NewReader(content), opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to upload file: %v", err)), nil
	}
	return mcp.NewToolResultText("Uploaded file:\n" + formatFile(info)), nil
}

func handleCreateFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; folder creation is disabled."), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var parents []string
	if parent := stringArg(args, "parentFolderId", ""); parent != "" {
		parents = []string{parent}
	}

	client, err := getDriveClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.CreateFolder(ctx, name, parents)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create folder: %v", err)), nil
	}
	return mcp.NewToolResultText("Created folder:\n" + formatFile(info)), nil
}

func handleDeleteFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; deletion is disabled."), nil
	}

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := getDriveClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteFile(ctx, fileID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete file: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved %s to the trash.", fileID)), nil
}

func formatFile(f *drive.FileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", f.Name)
	fmt.Fprintf(&b, "   ID: %s\n", f.ID)
	if f.IsFolder() {
		b.WriteString("   Type: folder\n")
	} else if f.MimeType != "" {
		fmt.Fprintf(&b, "   Type: %s\n", f.MimeType)
	}
	if f.Size > 0 {
		fmt.Fprintf(&b, "   Size: %d bytes\n", f.Size)
	}
	if !f.ModifiedTime.IsZero() {
		fmt.Fprintf(&b, "   Modified: %s\n", f.ModifiedTime.Format("2006-01-02 15:04"))
	}
	if f.WebViewLink != "" {
		fmt.Fprintf(&b, "   Link: %s\n", f.WebViewLink)
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
