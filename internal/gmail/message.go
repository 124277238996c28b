package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// buildRawMessage assembles an RFC 2822 message for the Gmail send and draft
// endpoints.
func buildRawMessage(out OutgoingMessage) ([]byte, error) {
	if len(out.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if out.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(out.To, ", "))
	if len(out.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(out.Cc, ", "))
	}
	if len(out.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(out.Bcc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", out.Subject)
	if out.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", out.InReplyTo)
		fmt.Fprintf(&b, "References: %s\r\n", out.InReplyTo)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(out.Body)

	return []byte(b.String()), nil
}

// extractBody walks a message payload and returns the first text/plain part,
// falling back to text/html when no plain part exists.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	return findPart(payload, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}

	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		if decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data); err == nil {
			return string(decoded)
		}
		return ""
	}

	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}
