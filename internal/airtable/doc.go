// Package airtable is a minimal Airtable REST client covering the
// operations the gateway exposes as tools.
package airtable
