package airtable

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

// DefaultBaseURL is the Airtable REST API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

const defaultTimeout = 30 * time.Second

// APIError carries an Airtable error response.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable request failed: status %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

// Client is a minimal Airtable REST client using a personal access token.
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

// NewClient creates an Airtable client for the given token.
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

// ListBases lists the bases the token can access.
func (c *Client) ListBases(ctx context.Context, offset string) ([]Base, string, error) {
	params := url.Values{}
	if offset != "" {
		params.Set("offset", offset)
	}

	var resp struct {
		Bases  []Base `json:"bases"`
		Offset string `json:"offset"`
	}
	if err := c.get(ctx, "/meta/bases", params, &resp); err != nil {
		return nil, "", err
	}
	return resp.Bases, resp.Offset, nil
}

// ListRecords lists records in a table. table may be a name or a table id.
func (c *Client) ListRecords(ctx context.Context, baseID, table string, opts *ListOptions) ([]Record, string, error) {
	if baseID == "" || table == "" {
		return nil, "", fmt.Errorf("baseID and table are required")
	}

	params := url.Values{}
	if opts != nil {
		if opts.MaxRecords > 0 {
			params.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		}
		if opts.View != "" {
			params.Set("view", opts.View)
		}
		if opts.FilterFormula != "" {
			params.Set("filterByFormula", opts.FilterFormula)
		}
		if opts.Offset != "" {
			params.Set("offset", opts.Offset)
		}
	}

	var resp struct {
		Records []Record `json:"records"`
		Offset  string   `json:"offset"`
	}
	path := "/" + url.PathEscape(baseID) + "/" + url.PathEscape(table)
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, "", err
	}
	return resp.Records, resp.Offset, nil
}

// CreateRecord creates one record with the given fields.
func (c *Client) CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (*Record, error) {
	if baseID == "" || table == "" {
		return nil, fmt.Errorf("baseID and table are required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}

	var record Record
	path := "/" + url.PathEscape(baseID) + "/" + url.PathEscape(table)
	if err := c.post(ctx, path, map[string]any{"fields": fields}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	return c.do(req, out)
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
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call airtable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read airtable response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Type = envelope.Error.Type
			apiErr.Message = envelope.Error.Message
		}
		c.logger.Warn("airtable API error",
			"status", resp.StatusCode, "type", apiErr.Type)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode airtable response: %w", err)
	}
	return nil
}
