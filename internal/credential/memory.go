package credential

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graviton-studio/logos-I/internal/crypto"
)

// memoryRecord is the at-rest shape of a credential in the in-memory store.
// Token fields hold ciphertext, mirroring the Postgres column contents.
type memoryRecord struct {
	id               string
	userID           string
	provider         string
	encryptedAccess  string
	encryptedRefresh string
	tokenType        string
	expiresAt        *time.Time
	scope            string
	updatedAt        time.Time
}

// MemoryStore is an in-process Store used for tests and stdio development
// runs. It applies the same encrypt-at-rest discipline as the Postgres
// store so test coverage exercises the real cipher paths.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	cipher  *crypto.Cipher
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(cipher *crypto.Cipher) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
		cipher:  cipher,
	}
}

func storeKey(userID, provider string) string {
	return userID + "\x00" + provider
}

// Get returns the decrypted credential for the pair, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, userID, provider string) (*Credential, error) {
	s.mu.RLock()
	rec, ok := s.records[storeKey(userID, provider)]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return s.decrypt(rec)
}

// Upsert encrypts and stores the credential, replacing any existing record
// for the same (user, provider) pair.
func (s *MemoryStore) Upsert(ctx context.Context, cred *Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	cred.UpdatedAt = time.Now().UTC()

	encryptedAccess, err := s.cipher.Encrypt(cred.AccessToken)
	if err != nil {
		return err
	}

	var encryptedRefresh string
	if cred.RefreshToken != "" {
		encryptedRefresh, err = s.cipher.Encrypt(cred.RefreshToken)
		if err != nil {
			return err
		}
	}

	rec := &memoryRecord{
		id:               cred.ID,
		userID:           cred.UserID,
		provider:         cred.Provider,
		encryptedAccess:  encryptedAccess,
		encryptedRefresh: encryptedRefresh,
		tokenType:        nonEmptyOr(cred.TokenType, "Bearer"),
		scope:            cred.Scope,
		updatedAt:        cred.UpdatedAt,
	}
	if cred.ExpiresAt != nil {
		t := cred.ExpiresAt.UTC()
		rec.expiresAt = &t
	}

	s.mu.Lock()
	// Keep the original record ID stable across refresh cycles.
	if existing, ok := s.records[storeKey(cred.UserID, cred.Provider)]; ok {
		rec.id = existing.id
		cred.ID = existing.id
	}
	s.records[storeKey(cred.UserID, cred.Provider)] = rec
	s.mu.Unlock()

	return nil
}

// Delete removes the pair's record. Idempotent.
func (s *MemoryStore) Delete(ctx context.Context, userID, provider string) error {
	s.mu.Lock()
	delete(s.records, storeKey(userID, provider))
	s.mu.Unlock()
	return nil
}

// ListExpiringBefore returns decrypted credentials expiring before the
// threshold, soonest first.
func (s *MemoryStore) ListExpiringBefore(ctx context.Context, threshold time.Time) ([]*Credential, error) {
	s.mu.RLock()
	var expiring []*memoryRecord
	for _, rec := range s.records {
		if rec.expiresAt != nil && rec.expiresAt.Before(threshold) {
			expiring = append(expiring, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(expiring, func(i, j int) bool {
		return expiring[i].expiresAt.Before(*expiring[j].expiresAt)
	})

	creds := make([]*Credential, 0, len(expiring))
	for _, rec := range expiring {
		cred, err := s.decrypt(rec)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}

	return creds, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored records, for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Corrupt overwrites the stored access-token ciphertext for a pair, for
// tests exercising the data-corruption paths.
func (s *MemoryStore) Corrupt(userID, provider, ciphertext string) {
	s.mu.Lock()
	if rec, ok := s.records[storeKey(userID, provider)]; ok {
		rec.encryptedAccess = ciphertext
	}
	s.mu.Unlock()
}

func (s *MemoryStore) decrypt(rec *memoryRecord) (*Credential, error) {
	accessToken, err := s.cipher.Decrypt(rec.encryptedAccess)
	if err != nil {
		return nil, err
	}

	var refreshToken string
	if rec.encryptedRefresh != "" {
		refreshToken, err = s.cipher.Decrypt(rec.encryptedRefresh)
		if err != nil {
			return nil, err
		}
	}

	cred := &Credential{
		ID:           rec.id,
		UserID:       rec.userID,
		Provider:     rec.provider,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    rec.tokenType,
		Scope:        rec.scope,
		UpdatedAt:    rec.updatedAt,
	}
	if rec.expiresAt != nil {
		t := *rec.expiresAt
		cred.ExpiresAt = &t
	}

	return cred, nil
}
