package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/graviton-studio/logos-I/internal/logging"
)

// DefaultBaseURL is the Exa API root.
const DefaultBaseURL = "https://api.exa.ai"

const defaultTimeout = 30 * time.Second

// APIError carries an Exa error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exa request failed: status %d: %s", e.StatusCode, e.Message)
}

// Client is a minimal Exa web-search client.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates an Exa client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a web search. numResults defaults server-side when zero.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	payload := map[string]any{"query": query}
	if opts != nil {
		if opts.NumResults > 0 {
			payload["numResults"] = opts.NumResults
		}
		if opts.Type != "" {
			payload["type"] = opts.Type
		}
		if len(opts.IncludeDomains) > 0 {
			payload["includeDomains"] = opts.IncludeDomains
		}
		if opts.IncludeText {
			payload["contents"] = map[string]any{"text": true}
		}
	}

	var resp struct {
		Results []Result `json:"results"`
	}
	if err := c.post(ctx, "/search", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// FindSimilar returns pages similar to the given URL.
func (c *Client) FindSimilar(ctx context.Context, pageURL string, numResults int) ([]Result, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("url is required")
	}

	payload := map[string]any{"url": pageURL}
	if numResults > 0 {
		payload["numResults"] = numResults
	}

	var resp struct {
		Results []Result `json:"results"`
	}
	if err := c.post(ctx, "/findSimilar", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetContents fetches the text content of previously returned result URLs.
func (c *Client) GetContents(ctx context.Context, urls []string) ([]Result, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one url is required")
	}

	var resp struct {
		Results []Result `json:"results"`
	}
	if err := c.post(ctx, "/contents", map[string]any{
		"urls": urls,
		"text": true,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call exa %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read exa response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil {
			apiErr.Message = envelope.Error
		}
		c.logger.Warn("exa API error", "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode exa response: %w", err)
	}
	return nil
}
