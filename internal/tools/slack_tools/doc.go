// Package slack_tools exposes Slack operations as MCP tools: channel
// listing, message posting, reactions, and conversation history.
package slack_tools
