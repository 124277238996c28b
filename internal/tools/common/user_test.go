package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/graviton-studio/logos-I/internal/credential"
	"github.com/graviton-studio/logos-I/internal/server"
	"github.com/graviton-studio/logos-I/internal/token"
)

func TestUserID_FromContext(t *testing.T) {
	ctx := server.WithUser(context.Background(), "auth-user")

	// The authenticated user wins over an explicit argument.
	userID, err := UserID(ctx, map[string]interface{}{"userId": "arg-user"})
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if userID != "auth-user" {
		t.Errorf("userID = %q, want auth-user", userID)
	}
}

func TestUserID_FromArgs(t *testing.T) {
	userID, err := UserID(context.Background(), map[string]interface{}{"userId": "arg-user"})
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if userID != "arg-user" {
		t.Errorf("userID = %q, want arg-user", userID)
	}
}

func TestUserID_Missing(t *testing.T) {
	if _, err := UserID(context.Background(), map[string]interface{}{}); err == nil {
		t.Error("UserID() should fail without context user or argument")
	}
	if _, err := UserID(context.Background(), map[string]interface{}{"userId": ""}); err == nil {
		t.Error("UserID() should reject an empty userId argument")
	}
}

func TestCredentialErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not connected", credential.ErrNotFound, "/connect/gcal"},
		{"wrapped not found", fmt.Errorf("get: %w", credential.ErrNotFound), "not connected"},
		{"unrefreshable", &token.UnrefreshableError{UserID: "u1", Provider: "gcal"}, "expired"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CredentialErrorMessage(tt.err, "gcal")
			if !strings.Contains(got, tt.want) {
				t.Errorf("CredentialErrorMessage() = %q, want mention of %q", got, tt.want)
			}
		})
	}
}
