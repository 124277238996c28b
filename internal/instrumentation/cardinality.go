package instrumentation

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cardinality management helpers for metrics and logs.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user identifiers.

// AnonymizeUser returns a short stable hash of a user ID for logs that must
// correlate entries per user without carrying the raw identifier.
//
// Example:
//
//	AnonymizeUser("jane@example.com")  // "user:1a2b3c4d5e6f7a8b"
//	AnonymizeUser("")                  // "unknown"
func AnonymizeUser(userID string) string {
	if userID == "" {
		return "unknown"
	}
	hash := sha256.Sum256([]byte(userID))
	return "user:" + hex.EncodeToString(hash[:8])
}

// Common operation types for provider API metrics.
// Status and sweep constants are defined in config.go.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSend   = "send"
	OperationSearch = "search"
)
