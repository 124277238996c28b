package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/graviton-studio/logos-I/internal/google"
)

// Client wraps the Gmail service for one user. All calls operate on the
// special "me" mailbox of the authenticated account.
type Client struct {
	svc    *gmail.Service
	userID string
}

// NewClient creates a Gmail client authenticated by the given token source.
func NewClient(ctx context.Context, userID string, ts oauth2.TokenSource) (*Client, error) {
	httpClient := google.NewHTTPClient(ctx, ts)

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Gmail service: %w", err)
	}

	return &Client{svc: svc, userID: userID}, nil
}

// UserID returns the user this client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// ListMessages lists messages matching the options, newest first. Each
// summary is populated from the metadata headers; use GetMessage for the
// body.
func (c *Client) ListMessages(ctx context.Context, opts *ListOptions) ([]MessageSummary, string, error) {
	call := c.svc.Users.Messages.List("me").Context(ctx)

	if opts != nil {
		if opts.Query != "" {
			call = call.Q(opts.Query)
		}
		if len(opts.LabelIDs) > 0 {
			call = call.LabelIds(opts.LabelIDs...)
		}
		if opts.MaxResults > 0 {
			call = call.MaxResults(int64(opts.MaxResults))
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}
	}

	list, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("list messages: %w", err)
	}

	summaries := make([]MessageSummary, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.svc.Users.Messages.Get("me", ref.Id).
			Context(ctx).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Do()
		if err != nil {
			return nil, "", fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		summaries = append(summaries, toMessageSummary(msg))
	}

	return summaries, list.NextPageToken, nil
}

// GetMessage retrieves one message in full, including the decoded plain-text
// body.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	msg, err := c.svc.Users.Messages.Get("me", messageID).
		Context(ctx).
		Format("full").
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}

	full := &Message{
		MessageSummary: toMessageSummary(msg),
		Body:           extractBody(msg.Payload),
	}
	return full, nil
}

// SendMessage sends an email from the authenticated account.
func (c *Client) SendMessage(ctx context.Context, out OutgoingMessage) (string, error) {
	raw, err := buildRawMessage(out)
	if err != nil {
		return "", err
	}

	sent, err := c.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return sent.Id, nil
}

// CreateDraft saves an email as a draft without sending it.
func (c *Client) CreateDraft(ctx context.Context, out OutgoingMessage) (string, error) {
	raw, err := buildRawMessage(out)
	if err != nil {
		return "", err
	}

	draft, err := c.svc.Users.Drafts.Create("me", &gmail.Draft{
		Message: &gmail.Message{
			Raw: base64.URLEncoding.EncodeToString(raw),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	return draft.Id, nil
}

// ModifyLabels adds and removes labels on a message. Marking as read is
// removing the UNREAD label.
func (c *Client) ModifyLabels(ctx context.Context, messageID string, addLabels, removeLabels []string) error {
	if messageID == "" {
		return fmt.Errorf("messageID is required")
	}

	_, err := c.svc.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabels,
		RemoveLabelIds: removeLabels,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("modify labels on %s: %w", messageID, err)
	}
	return nil
}
