// Package airtable_tools exposes Airtable operations as MCP tools: base
// discovery, record listing with formula filters, and record creation.
package airtable_tools
