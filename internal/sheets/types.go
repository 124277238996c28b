package sheets

import (
	sheets "google.golang.org/api/sheets/v4"
)

// SpreadsheetInfo describes a spreadsheet and its sheets.
type SpreadsheetInfo struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Sheets []string `json:"sheets"`
}

// UpdateResult summarizes a values write.
type UpdateResult struct {
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int64  `json:"updatedRows"`
	UpdatedColumns int64  `json:"updatedColumns"`
	UpdatedCells   int64  `json:"updatedCells"`
}

func toSpreadsheetInfo(s *sheets.Spreadsheet) *SpreadsheetInfo {
	if s == nil {
		return &SpreadsheetInfo{}
	}

	info := &SpreadsheetInfo{
		ID:  s.SpreadsheetId,
		URL: s.SpreadsheetUrl,
	}
	if s.Properties != nil {
		info.Title = s.Properties.Title
	}
	for _, sheet := range s.Sheets {
		if sheet.Properties != nil {
			info.Sheets = append(info.Sheets, sheet.Properties.Title)
		}
	}
	return info
}
