package airtable

// Base is one base from the meta API.
type Base struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PermissionLevel string `json:"permissionLevel"`
}

// Record is one row of a table. Fields are passed through untyped; the
// schema belongs to the base, not the gateway.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// ListOptions filters a record listing.
type ListOptions struct {
	MaxRecords int
	View       string

	// FilterFormula is an Airtable formula, e.g. "{Status}='Done'".
	FilterFormula string

	Offset string
}
