// Package gmail_tools exposes Gmail operations as MCP tools: message
// listing and retrieval, sending, drafting, and label modification.
package gmail_tools
