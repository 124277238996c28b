// Package drive_tools exposes Google Drive operations as MCP tools: file
// listing and search, metadata and content retrieval, uploads, folder
// creation, and trashing.
package drive_tools
