// Package common provides shared helpers for MCP tool implementations:
// user resolution, credential error messages, and the instrumentation
// wrapper every tool handler goes through.
package common
