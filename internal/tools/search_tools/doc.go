// Package search_tools exposes Exa web search as MCP tools: search,
// find-similar, and page content retrieval.
package search_tools
