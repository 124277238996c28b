package instrumentation

import "testing"

func TestAnonymizeUser(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		want   string // "" means any non-empty hash
	}{
		{"email id", "jane@example.com", ""},
		{"opaque id", "u1", ""},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnonymizeUser(tt.userID)
			if tt.want != "" {
				if result != tt.want {
					t.Errorf("AnonymizeUser(%q) = %q, want %q", tt.userID, result, tt.want)
				}
				return
			}
			if len(result) != len("user:")+16 {
				t.Errorf("AnonymizeUser(%q) = %q, want user: prefix plus 16 hex chars", tt.userID, result)
			}
			if result[:5] != "user:" {
				t.Errorf("AnonymizeUser(%q) = %q, want user: prefix", tt.userID, result)
			}
		})
	}

	if AnonymizeUser("u1") != AnonymizeUser("u1") {
		t.Error("AnonymizeUser should be deterministic")
	}
	if AnonymizeUser("u1") == AnonymizeUser("u2") {
		t.Error("different user IDs should produce different hashes")
	}
}

func TestOperationConstants(t *testing.T) {
	operations := map[string]string{
		OperationList:   "list",
		OperationGet:    "get",
		OperationCreate: "create",
		OperationUpdate: "update",
		OperationDelete: "delete",
		OperationSend:   "send",
		OperationSearch: "search",
	}

	for constant, expected := range operations {
		if constant != expected {
			t.Errorf("Operation constant = %q, want %q", constant, expected)
		}
	}
}
