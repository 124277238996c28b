// Package sheets_tools exposes Google Sheets operations as MCP tools:
// spreadsheet creation and cell range reads, overwrites, and appends.
package sheets_tools
