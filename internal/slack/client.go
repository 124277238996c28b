package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/graviton-studio/logos-I/internal/logging"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

const defaultTimeout = 30 * time.Second

// APIError is a Slack Web API error response. Slack returns HTTP 200 with
// ok=false and a short error code.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
}

// Client is a minimal Slack Web API client using a bot or user token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the client logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Slack client for the given token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListChannels lists public and private channels the token can see.
func (c *Client) ListChannels(ctx context.Context, limit int, cursor string) ([]Channel, string, error) {
	params := url.Values{}
	params.Set("types", "public_channel,private_channel")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp struct {
		apiResponse
		Channels         []Channel `json:"channels"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.get(ctx, "conversations.list", params, &resp); err != nil {
		return nil, "", err
	}
	return resp.Channels, resp.ResponseMetadata.NextCursor, nil
}

// SendMessage posts a message to a channel. threadTS threads the message
// under an existing one when set.
func (c *Client) SendMessage(ctx context.Context, channelID, text, threadTS string) (*MessageRef, error) {
	if channelID == "" || text == "" {
		return nil, fmt.Errorf("channel and text are required")
	}

	payload := map[string]string{
		"channel": channelID,
		"text":    text,
	}
	if threadTS != "" {
		payload["thread_ts"] = threadTS
	}

	var resp struct {
		apiResponse
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	}
	if err := c.post(ctx, "chat.postMessage", payload, &resp); err != nil {
		return nil, err
	}
	return &MessageRef{Channel: resp.Channel, Timestamp: resp.TS}, nil
}

// AddReaction adds an emoji reaction to a message. name is the emoji name
// without colons.
func (c *Client) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	if channelID == "" || timestamp == "" || name == "" {
		return fmt.Errorf("channel, timestamp, and reaction name are required")
	}

	var resp apiResponse
	return c.post(ctx, "reactions.add", map[string]string{
		"channel":   channelID,
		"timestamp": timestamp,
		"name":      name,
	}, &resp)
}

// ConversationHistory fetches recent messages from a channel, newest first.
func (c *Client) ConversationHistory(ctx context.Context, channelID string, limit int, cursor string) ([]Message, string, error) {
	if channelID == "" {
		return nil, "", fmt.Errorf("channel is required")
	}

	params := url.Values{}
	params.Set("channel", channelID)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp struct {
		apiResponse
		Messages         []Message `json:"messages"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.get(ctx, "conversations.history", params, &resp); err != nil {
		return nil, "", err
	}
	return resp.Messages, resp.ResponseMetadata.NextCursor, nil
}

// apiResponse is the envelope every Slack Web API response carries.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r *apiResponse) ok() bool     { return r.OK }
func (r *apiResponse) code() string { return r.Error }

type envelope interface {
	ok() bool
	code() string
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out envelope) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	return c.do(req, method, out)
}

func (c *Client) post(ctx context.Context, method string, payload any, out envelope) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out envelope) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read slack %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack %s: unexpected status %d", method, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode slack %s response: %w", method, err)
	}
	if !out.ok() {
		c.logger.Warn("slack API error", "method", method, "code", out.code())
		return &APIError{Method: method, Code: out.code()}
	}
	return nil
}
