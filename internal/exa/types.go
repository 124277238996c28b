package exa

// SearchOptions tunes a search request.
type SearchOptions struct {
	NumResults int

	// Type selects the search mode: "auto", "neural", or "keyword".
	Type string

	IncludeDomains []string

	// IncludeText asks for page text in the same round trip.
	IncludeText bool
}

// Result is one search, similarity, or contents result.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"publishedDate,omitempty"`
	Author        string  `json:"author,omitempty"`
	Score         float64 `json:"score,omitempty"`
	Text          string  `json:"text,omitempty"`
}
