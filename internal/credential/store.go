package credential

import (
	"context"
	"time"
)

// Store persists one credential per (user, provider) pair.
//
// Implementations encrypt AccessToken and RefreshToken before writing and
// decrypt them before returning, so callers only ever see plaintext structs
// and the backing storage only ever sees ciphertext. All methods are safe
// for concurrent use.
type Store interface {
	// Get returns the decrypted credential for the pair, or ErrNotFound.
	Get(ctx context.Context, userID, provider string) (*Credential, error)

	// Upsert encrypts and writes the credential. Repeated upserts for the
	// same (user, provider) update one logical record; they never create
	// duplicates. The credential's ID is assigned if empty and UpdatedAt is
	// set to the write time.
	Upsert(ctx context.Context, cred *Credential) error

	// Delete removes the pair's credential. Deleting an absent row is not
	// an error.
	Delete(ctx context.Context, userID, provider string) error

	// ListExpiringBefore returns every decrypted credential whose expiry is
	// set and falls before the threshold. Used by the maintenance sweep.
	ListExpiringBefore(ctx context.Context, threshold time.Time) ([]*Credential, error)

	// Close releases the underlying storage client.
	Close() error
}
