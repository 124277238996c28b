package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/provider"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/token"
)

// UserID resolves the user a tool call acts for.
//
// Priority order:
//  1. The authenticated user from the request context, set by the bearer
//     auth middleware on the HTTP transport.
//  2. An explicit "userId" argument, used on the stdio transport where no
//     middleware runs.
func UserID(ctx context.Context, args map[string]interface{}) (string, error) {
	if userID, ok := server.UserFromContext(ctx); ok {
		return userID, nil
	}
	if userID, ok := args["userId"].(string); ok && userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("userId is required")
}

// CredentialErrorMessage turns a token service error into the message a
// tool returns to the agent. Not-connected and expired-beyond-repair cases
// tell the user how to reconnect instead of leaking internals.
func CredentialErrorMessage(err error, providerKey string) string {
	var unrefreshable *token.UnrefreshableError
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return fmt.Sprintf("The %s integration is not connected. Visit /connect/%s to authorize access.", providerKey, providerKey)
	case errors.As(err, &unrefreshable):
		return fmt.Sprintf("The %s authorization has expired. Visit /connect/%s to reconnect.", providerKey, providerKey)
	case errors.Is(err, provider.ErrUnsupportedProvider):
		return fmt.Sprintf("Unknown integration %q.", providerKey)
	default:
		return fmt.Sprintf("Failed to obtain %s credentials: %v", providerKey, err)
	}
}
