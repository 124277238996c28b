package search_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/exa"
	"github.com/graviton-studio/logos-I/internal/instrumentation"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/tools/common"
)

// getExaClient builds an Exa client for the user's stored API key. The
// client is a thin HTTP wrapper, so it is constructed per call.
func getExaClient(ctx context.Context, userID string, sc *server.ServerContext) (*exa.Client, error) {
	cred, err := sc.Tokens().GetValidCredential(ctx, userID, credential.ProviderExa)
	if err != nil {
		return nil, fmt.Errorf("%s", common.CredentialErrorMessage(err, credential.ProviderExa))
	}
	return exa.NewClient(cred.AccessToken), nil
}

// RegisterSearchTools registers all web search tools with the MCP server.
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("web_search",
		mcp.WithDescription("Search the web with Exa"),
		mcp.WithString("userId",
			mcp.Description("User whose API key to use. Optional when the request is authenticated."),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("numResults",
			mcp.Description("Maximum results to return (default 10, max 25)"),
		),
		mcp.WithString("type",
			mcp.Description("Search mode: 'auto', 'neural', or 'keyword' (default: auto)"),
		),
		mcp.WithString("includeDomains",
			mcp.Description("Comma-separated domains to restrict results to"),
		),
		mcp.WithBoolean("includeText",
			mcp.Description("Also return page text for each result"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithProvider(
		"web_search", credential.ProviderExa, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	similarTool := mcp.NewTool("web_find_similar",
		mcp.WithDescription("Find pages similar to a given URL"),
		mcp.WithString("userId",
			mcp.Description("User whose API key to use. Optional when the request is authenticated."),
		),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL to find similar pages for"),
		),
		mcp.WithNumber("numResults",
			mcp.Description("Maximum results to return (default 10, max 25)"),
		),
	)
	s.AddTool(similarTool, common.InstrumentedToolHandlerWithProvider(
		"web_find_similar", credential.ProviderExa, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindSimilar(ctx, request, sc)
		}))

	contentsTool := mcp.NewTool("web_get_contents",
		mcp.WithDescription("Fetch the text content of one or more web pages"),
		mcp.WithString("userId",
			mcp.Description("User whose API key to use. Optional when the request is authenticated."),
		),
		mcp.WithString("urls",
			mcp.Required(),
			mcp.Description("Comma-separated URLs to fetch"),
		),
	)
	s.AddTool(contentsTool, common.InstrumentedToolHandlerWithProvider(
		"web_get_contents", credential.ProviderExa, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetContents(ctx, request, sc)
		}))

	return nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	opts := &exa.SearchOptions{
		NumResults: intArg(args, "numResults", 10),
		Type:       stringArg(args, "type", ""),
	}
	if opts.NumResults > 25 {
		opts.NumResults = 25
	}
	if raw := stringArg(args, "includeDomains", ""); raw != "" {
		for _, domain := range strings.Split(raw, ",") {
			if domain = strings.TrimSpace(domain); domain != "" {
				opts.IncludeDomains = append(opts.IncludeDomains, domain)
			}
		}
	}
	if include, ok := args["includeText"].(bool); ok {
		opts.IncludeText = include
	}

	client, err := getExaClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := client.Search(ctx, query, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No results for %q.", query)), nil
	}
	return mcp.NewToolResultText(formatResults(results)), nil
}

func handleFindSimilar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pageURL, ok := args["url"].(string)
	if !ok || pageURL == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	numResults := intArg(args, "numResults", 10)
	if numResults > 25 {
		numResults = 25
	}

	client, err := getExaClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := client.FindSimilar(ctx, pageURL, numResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Similarity search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No pages similar to %s.", pageURL)), nil
	}
	return mcp.NewToolResultText(formatResults(results)), nil
}

func handleGetContents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	userID, err := common.UserID(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, ok := args["urls"].(string)
	if !ok || raw == "" {
		return mcp.NewToolResultError("urls is required"), nil
	}
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return mcp.NewToolResultError("urls is required"), nil
	}

	client, err := getExaClient(ctx, userID, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := client.GetContents(ctx, urls)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch contents: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No content returned."), nil
	}
	return mcp.NewToolResultText(formatResults(results)), nil
}

// textLimit caps per-result page text in tool output.
const textLimit = 4000

func formatResults(results []exa.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d result(s):\n\n", len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n", i+1, title, r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "   Published: %s\n", r.PublishedDate)
		}
		if r.Author != "" {
			fmt.Fprintf(&b, "   Author: %s\n", r.Author)
		}
		if r.Text != "" {
			text := r.Text
			if len(text) > textLimit {
				text = text[:textLimit] + " [truncated]"
			}
			fmt.Fprintf(&b, "   %s\n", text)
		}
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
