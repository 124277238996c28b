// Package cmd implements the command-line interface for the logos gateway.
//
// This package provides the following commands:
//   - serve: Start the MCP gateway (stdio or streamable-http transport)
//   - sweep: Refresh stored credentials nearing expiry
//   - keygen: Generate a token encryption key
//   - version: Display version information
package cmd
