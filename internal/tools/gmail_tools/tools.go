package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/gmail"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// getGmailClient resolves the user's Gmail client after verifying a usable
// credential exists, so a never-connected user gets a reconnect hint.
func getGmailClient(ctx context.Context, userID string, sc *server.ServerContext) (*gmail.Client, error) {
	if _, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderGmail); err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderGmail))
	}
	return sc.GmailClient(userID)
}

// RegisterGmailTools registers all Gmail tools with the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List Gmail messages matching a search query"),
		mcp.WithString("userId",
			mcp.Description("User whose mailbox to read. Optional when the request is authenticated."),
		),
		mcp.WithString("query",
			mcp.Description("Gmail search query, e.g. 'from:alice is:unread newer_than:7d'"),
		),
		mcp.WithString("labelIds",
			mcp.Description("Comma-separated label IDs to filter by, e.g. 'INBOX,UNREAD'"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum messages to return (default 20, max 100)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Continuation token from a previous listing"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithProvider(
		"gmail_list_messages", credential.ProviderGmail, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	getTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get a single Gmail message including its body"),
		mcp.WithString("userId",
			mcp.Description("User whose mailbox to read. Optional when the request is authenticated."),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("Message ID"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithProvider(
		"gmail_get_message", credential.ProviderGmail, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMessage(ctx, request, sc)
		}))

	sendTool := mcp.NewTool("gmail_send_message",
		mcp.WithDescription("Send an email from the user's Gmail account"),
		mcp.WithString("userId",
			mcp.Description("User to send as. Optional when the request is authenticated."),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Subject line"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain-text message body"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated CC addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated BCC addresses"),
		),
		mcp.WithString("inReplyTo",
			mcp.Description("Message-ID header value to thread the reply under"),
		),
	)
	s.AddTool(sendTool, common.InstrumentedToolHandlerWithProvider(
		"gmail_send_message", credential.ProviderGmail, instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendMessage(ctx, request, sc, false)
		}))

	draftTool := mcp.NewTool("gmail_create_draft",
		mcp.WithDescription("Create a draft email in the user's Gmail account"),
		mcp.WithString("userId",
			mcp.Description("User to draft as. Optional when the request is authenticated."),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipient addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Subject line"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain-text message body"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated CC addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated BCC addresses"),
		),
	)
	s.AddTool(draftTool, common.InstrumentedToolHandlerWithProvider(
		"gmail_create_draft", credential.ProviderGmail, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendMessage(ctx, request, sc, true)
		}))

	labelsTool := mcp.NewTool("gmail_modify_labels",
		mcp.WithDescription("Add or remove labels on a Gmail message, e.g. mark read/unread or archive"),
		mcp.WithString("userId",
			mcp.Description("User whose mailbox to modify. Optional when the request is authenticated."),
		),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("Message ID"),
		),
		mcp.WithString("addLabels",
			mcp.Description("Comma-separated label IDs to add"),
		),
		mcp.WithString("removeLabels",
			mcp.Description("Comma-separated label IDs to remove, e.g. 'UNREAD' to mark read"),
		),
	)
	s.AddTool(labelsTool, common.InstrumentedToolHandlerWithProvider(
		"gmail_modify_labels", credential.ProviderGmail, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleModifyLabels(ctx, request, sc)
		}))

	return nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := &gmail.ListOptions{
		Query:      stringArg(args, "query", ""),
		PageToken:  stringArg(args, "pageToken", ""),
		MaxResults: intArg(args, "maxResults", 20),
	}
	if opts.MaxResults > 100 {
		opts.MaxResults = 100
	}
	if raw := stringArg(args, "labelIds", ""); raw != "" {
		opts.LabelIDs = splitList(raw)
	}

	client, err := getGmailClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, nextPage, err := client.ListMessages(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list messages: %v", err)), nil
	}
	if len(messages) == 0 {
		return mcp.NewToolResultText("No messages found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d message(s):\n\n", len(messages))
	for i, msg := range messages {
		fmt.Fprintf(&b, "%d. %s\n   From: %s\n   Date: %s\n   ID: %s\n",
			i+1, msg.Subject, msg.From, msg.Date, msg.ID)
		if msg.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", msg.Snippet)
		}
	}
	if nextPage != "" {
		fmt.Fprintf(&b, "\nMore results available, pass pageToken=%s", nextPage)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	client, err := getGmailClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg, err := client.GetMessage(ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nFrom: %s\nTo: %s\nDate: %s\n\n%s",
		msg.Subject, msg.From, msg.To, msg.Date, msg.Body)
	return mcp.NewToolResultText(b.String()), nil
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, draft bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; sending email is disabled."), nil
	}

	out := gmail.OutgoingMessage{
		To:        splitList(stringArg(args, "to", "")),
		Cc:        splitList(stringArg(args, "cc", "")),
		Bcc:       splitList(stringArg(args, "bcc", "")),
		Subject:   stringArg(args, "subject", ""),
		Body:      stringArg(args, "body", ""),
		InReplyTo: stringArg(args, "inReplyTo", ""),
	}
	if len(out.To) == 0 {
		return mcp.NewToolResultError("to is required"), nil
	}
	if out.Subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	if out.Body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	client, err := getGmailClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if draft {
		id, err := client.CreateDraft(ctx, out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create draft: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created draft %s.", id)), nil
	}

	id, err := client.SendMessage(ctx, out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Sent message %s to %s.", id, strings.Join(out.To, ", "))), nil
}

func handleModifyLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; label changes are disabled."), nil
	}

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	addLabels := splitList(stringArg(args, "addLabels", ""))
	removeLabels := splitList(stringArg(args, "removeLabels", ""))
	if len(addLabels) == 0 && len(removeLabels) == 0 {
		return mcp.NewToolResultError("addLabels or removeLabels is required"), nil
	}

	client, err := getGmailClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.ModifyLabels(ctx, messageID, addLabels, removeLabels); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to modify labels: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated labels on message %s.", messageID)), nil
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string, fallback int) int {
	if value, ok := args[key].(float64); ok && value > 0 {
		return int(value)
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
