package slack_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/slack"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// getSlackClient builds a Slack client for the user's stored token. The
// client is a thin HTTP wrapper, so it is constructed per call rather
// than cached.
func getSlackClient(ctx context.Context, userID string, sc *server.ServerContext) (*slack.Client, error) {
	cred, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderSlack)
	if err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderSlack))
	}
	return slack.NewClient(cred.AccessToken), nil
}

// RegisterSlackTools registers all Slack tools with the MCP server.
func RegisterSlackTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	channelsTool := mcp.NewTool("slack_list_channels",
		mcp.WithDescription("List Slack channels the user can see"),
		mcp.WithString("userId",
			mcp.Description("User whose workspace to read. Optional when the request is authenticated."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum channels to return (default 50, max 200)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Continuation cursor from a previous listing"),
		),
	)
	s.AddTool(channelsTool, common.InstrumentedToolHandlerWithProvider(
		"slack_list_channels", credential.ProviderSlack, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListChannels(ctx, request, sc)
		}))

	sendTool := mcp.NewTool("slack_send_message",
		mcp.WithDescription("Post a message to a Slack channel"),
		mcp.WithString("userId",
			mcp.Description("User to post as. Optional when the request is authenticated."),
		),
		mcp.WithString("channelId",
			mcp.Required(),
			mcp.Description("Channel ID, e.g. C0123456789"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Message text"),
		),
		mcp.WithString("threadTs",
			mcp.Description("Thread timestamp to reply under"),
		),
	)
	s.AddTool(sendTool, common.InstrumentedToolHandlerWithProvider(
		"slack_send_message", credential.ProviderSlack, instrumentation.OperationSend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendMessage(ctx, request, sc)
		}))

	reactionTool := mcp.NewTool("slack_add_reaction",
		mcp.WithDescription("Add an emoji reaction to a Slack message"),
		mcp.WithString("userId",
			mcp.Description("User to react as. Optional when the request is authenticated."),
		),
		mcp.WithString("channelId",
			mcp.Required(),
			mcp.Description("Channel ID"),
		),
		mcp.WithString("timestamp",
			mcp.Required(),
			mcp.Description("Timestamp of the message to react to"),
		),
		mcp.WithString("emoji",
			mcp.Required(),
			mcp.Description("Emoji name without colons, e.g. 'thumbsup'"),
		),
	)
	s.AddTool(reactionTool, common.InstrumentedToolHandlerWithProvider(
		"slack_add_reaction", credential.ProviderSlack, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddReaction(ctx, request, sc)
		}))

	historyTool := mcp.NewTool("slack_channel_history",
		mcp.WithDescription("Read recent messages from a Slack channel"),
		mcp.WithString("userId",
			mcp.Description("User whose workspace to read. Optional when the request is authenticated."),
		),
		mcp.WithString("channelId",
			mcp.Required(),
			mcp.Description("Channel ID"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum messages to return (default 20, max 100)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Continuation cursor from a previous read"),
		),
	)
	s.AddTool(historyTool, common.InstrumentedToolHandlerWithProvider(
		"slack_channel_history", credential.ProviderSlack, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleChannelHistory(ctx, request, sc)
		}))

	return nil
}

func handleListChannels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := intArg(args, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	client, err := getSlackClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	channels, nextCursor, err := client.ListChannels(ctx, limit, stringArg(args, "cursor", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list channels: %v", err)), nil
	}
	if len(channels) == 0 {
		return mcp.NewToolResultText("No channels found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d channel(s):\n\n", len(channels))
	for i, ch := range channels {
		fmt.Fprintf(&b, "%d. #%s\n   ID: %s\n", i+1, ch.Name, ch.ID)
		if ch.IsPrivate {
			b.WriteString("   Private: yes\n")
		}
		if ch.Topic.Value != "" {
			fmt.Fprintf(&b, "   Topic: %s\n", ch.Topic.Value)
		}
	}
	if nextCursor != "" {
		fmt.Fprintf(&b, "\nMore results available, pass cursor=%s", nextCursor)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; posting is disabled."), nil
	}

	channelID, ok := args["channelId"].(string)
	if !ok || channelID == "" {
		return mcp.NewToolResultError("channelId is required"), nil
	}
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	client, err := getSlackClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ref, err := client.SendMessage(ctx, channelID, text, stringArg(args, "threadTs", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Posted to %s at ts=%s.", ref.Channel, ref.Timestamp)), nil
}

func handleAddReaction(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sc.ReadOnly() {
		return mcp.NewToolResultError("The gateway is in read-only mode; reactions are disabled."), nil
	}

	channelID, ok := args["channelId"].(string)
	if !ok || channelID == "" {
		return mcp.NewToolResultError("channelId is required"), nil
	}
	timestamp, ok := args["timestamp"].(string)
	if !ok || timestamp == "" {
		return mcp.NewToolResultError("timestamp is required"), nil
	}
	emoji, ok := args["emoji"].(string)
	if !ok || emoji == "" {
		return mcp.NewToolResultError("emoji is required"), nil
	}
	emoji = strings.Trim(emoji, ":")

	client, err := getSlackClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.AddReaction(ctx, channelID, timestamp, emoji); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add reaction: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added :%s: to the message at ts=%s.", emoji, timestamp)), nil
}

func handleChannelHistory(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	channelID, ok := args["channelId"].(string)
	if !ok || channelID == "" {
		return mcp.NewToolResultError("channelId is required"), nil
	}

	limit := intArg(args, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	client, err := getSlackClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, nextCursor, err := client.ConversationHistory(ctx, channelID, limit, stringArg(args, "cursor", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read history: %v", err)), nil
	}
	if len(messages) == 0 {
		return mcp.NewToolResultText("No messages in the channel."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d message(s):\n\n", len(messages))
	for _, msg := range messages {
		fmt.Fprintf(&b, "[%s] %s: %s\n", msg.Timestamp, msg.User, msg.Text)
	}
	if nextCursor != "" {
		fmt.Fprintf(&b, "\nMore results available, pass cursor=%s", nextCursor)
	}
	return mcp.NewToolResultText(b.String()), nil
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
