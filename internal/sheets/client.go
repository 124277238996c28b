package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/graviton-studio/logos-I/internal/google"
)

// Client wraps the Google Sheets service for one user.
type Client struct {
	svc    *sheets.Service
	userID string
}

// NewClient creates a Sheets client authenticated by the given token source.
func NewClient(ctx context.Context, userID string, ts oauth2.TokenSource) (*Client, error) {
	httpClient := google.NewHTTPClient(ctx, ts)

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Sheets service: %w", err)
	}

	return &Client{svc: svc, userID: userID}, nil
}

// UserID returns the user this client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// CreateSpreadsheet creates a spreadsheet with the given title and one sheet
// per entry in sheetTitles (or the default sheet when empty).
func (c *Client) CreateSpreadsheet(ctx context.Context, title string, sheetTitles []string) (*SpreadsheetInfo, error) {
	if title == "" {
		return nil, fmt.Errorf("spreadsheet title is required")
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}
	for _, sheetTitle := range sheetTitles {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: sheetTitle},
		})
	}

	created, err := c.svc.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}
	return toSpreadsheetInfo(created), nil
}

// GetValues reads a range in A1 notation (e.g. "Sheet1!A1:C10").
func (c *Client) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	if spreadsheetID == "" || readRange == "" {
		return nil, fmt.Errorf("spreadsheetID and range are required")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values %s: %w", readRange, err)
	}
	return resp.Values, nil
}

// UpdateValues overwrites a range with the given rows. Values are written
// as entered by a user, so formulas are evaluated.
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, writeRange string, values [][]interface{}) (*UpdateResult, error) {
	if spreadsheetID == "" || writeRange == "" {
		return nil, fmt.Errorf("spreadsheetID and range are required")
	}

	resp, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("update values %s: %w", writeRange, err)
	}

	return &UpdateResult{
		UpdatedRange:   resp.UpdatedRange,
		UpdatedRows:    resp.UpdatedRows,
		UpdatedColumns: resp.UpdatedColumns,
		UpdatedCells:   resp.UpdatedCells,
	}, nil
}

// AppendValues appends rows after the last row of data in the range's table.
func (c *Client) AppendValues(ctx context.Context, spreadsheetID, appendRange string, values [][]interface{}) (*UpdateResult, error) {
	if spreadsheetID == "" || appendRange == "" {
		return nil, fmt.Errorf("spreadsheetID and range are required")
	}

	resp, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, appendRange, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("append values %s: %w", appendRange, err)
	}

	result := &UpdateResult{}
	if resp.Updates != nil {
		result.UpdatedRange = resp.Updates.UpdatedRange
		result.UpdatedRows = resp.Updates.UpdatedRows
		result.UpdatedColumns = resp.Updates.UpdatedColumns
		result.UpdatedCells = resp.Updates.UpdatedCells
	}
	return result, nil
}
