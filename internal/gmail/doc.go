// Package gmail provides a Gmail client scoped to one user: listing,
// reading, sending, and drafting messages. Authentication runs through an
// oauth2.TokenSource backed by the token service.
package gmail
