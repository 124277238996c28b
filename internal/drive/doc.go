// Package drive provides a Google Drive client scoped to one user: listing,
// searching, uploading, and folder management. Authentication runs through
// an oauth2.TokenSource backed by the token service.
package drive
