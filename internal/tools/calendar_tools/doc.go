// Package calendar_tools exposes Google Calendar operations as MCP tools:
// event listing, retrieval, creation and deletion, calendar enumeration,
// and free/busy queries.
package calendar_tools
