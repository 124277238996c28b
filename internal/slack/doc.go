// Package slack is a minimal Slack Web API client covering the operations
// the gateway exposes as tools.
package slack
