package gmail

import (
	gmail "google.golang.org/api/gmail/v1"
)

// ListOptions filters a message listing. Query uses Gmail's search syntax
// (e.g. "from:alice is:unread newer_than:7d").
type ListOptions struct {
	Query      string
	LabelIDs   []string
	MaxResults int
	PageToken  string
}

// MessageSummary is the header-level view of a message.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// Message is a full message including the decoded plain-text body.
type Message struct {
	MessageSummary
	Body string `json:"body"`
}

// OutgoingMessage carries the fields for sending or drafting an email.
type OutgoingMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string

	// InReplyTo threads the message under an existing Message-ID header.
	InReplyTo string
}

func toMessageSummary(msg *gmail.Message) MessageSummary {
	if msg == nil {
		return MessageSummary{}
	}

	summary := MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				summary.From = h.Value
			case "To":
				summary.To = h.Value
			case "Subject":
				summary.Subject = h.Value
			case "Date":
				summary.Date = h.Value
			}
		}
	}

	return summary
}
