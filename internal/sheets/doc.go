// Package sheets provides a Google Sheets client scoped to one user.
package sheets
