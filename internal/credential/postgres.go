package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/graviton-studio/logos-I/internal/crypto"
)

// PostgresStore is the durable Store implementation backed by the
// oauth_credentials table.
type PostgresStore struct {
	db     *sql.DB
	cipher *crypto.Cipher
}

// NewPostgresStore opens a connection pool, verifies connectivity, and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, connectionString string, cipher *crypto.Cipher) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Pool limits sized for a single gateway instance against a hosted DB.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db, cipher: cipher}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS oauth_credentials (
		id VARCHAR(64) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		provider VARCHAR(64) NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT,
		token_type VARCHAR(64) NOT NULL DEFAULT 'Bearer',
		expires_at TIMESTAMPTZ,
		scope TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, provider)
	);

	CREATE INDEX IF NOT EXISTS idx_oauth_credentials_expires_at
		ON oauth_credentials(expires_at) WHERE expires_at IS NOT NULL;
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Get retrieves and decrypts the credential for a user/provider pair.
func (s *PostgresStore) Get(ctx context.Context, userID, provider string) (*Credential, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_type, expires_at, scope, updated_at
		FROM oauth_credentials
		WHERE user_id = $1 AND provider = $2
	`

	row := s.db.QueryRowContext(ctx, query, userID, provider)
	cred, err := s.scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return cred, nil
}

// Upsert encrypts and writes the credential, updating the existing row for
// the (user_id, provider) pair when one exists.
func (s *PostgresStore) Upsert(ctx context.Context, cred *Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	cred.UpdatedAt = time.Now().UTC()

	encryptedAccess, err := s.cipher.Encrypt(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var encryptedRefresh sql.NullString
	if cred.RefreshToken != "" {
		ct, err := s.cipher.Encrypt(cred.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		encryptedRefresh = sql.NullString{String: ct, Valid: true}
	}

	query := `
		INSERT INTO oauth_credentials
			(id, user_id, provider, access_token, refresh_token, token_type, expires_at, scope, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			expires_at = EXCLUDED.expires_at,
			scope = EXCLUDED.scope,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		cred.ID,
		cred.UserID,
		cred.Provider,
		encryptedAccess,
		encryptedRefresh,
		nonEmptyOr(cred.TokenType, "Bearer"),
		nullableTime(cred.ExpiresAt),
		sql.NullString{String: cred.Scope, Valid: cred.Scope != ""},
		cred.UpdatedAt,
	)

	return err
}

// Delete removes the credential row. Idempotent.
func (s *PostgresStore) Delete(ctx context.Context, userID, provider string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM oauth_credentials WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	)
	return err
}

// ListExpiringBefore returns decrypted credentials with an expiry before the
// threshold, ordered soonest first.
func (s *PostgresStore) ListExpiringBefore(ctx context.Context, threshold time.Time) ([]*Credential, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_type, expires_at, scope, updated_at
		FROM oauth_credentials
		WHERE expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at
	`

	rows, err := s.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		cred, err := s.scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}

	return creds, rows.Err()
}

// Ping verifies database connectivity, for readiness probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanCredential(row scanner) (*Credential, error) {
	var (
		cred             Credential
		encryptedAccess  string
		encryptedRefresh sql.NullString
		expiresAt        sql.NullTime
		scope            sql.NullString
	)

	err := row.Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Provider,
		&encryptedAccess,
		&encryptedRefresh,
		&cred.TokenType,
		&expiresAt,
		&scope,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cred.AccessToken, err = s.cipher.Decrypt(encryptedAccess)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for %s/%s: %w", cred.UserID, cred.Provider, err)
	}

	if encryptedRefresh.Valid {
		cred.RefreshToken, err = s.cipher.Decrypt(encryptedRefresh.String)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token for %s/%s: %w", cred.UserID, cred.Provider, err)
		}
	}

	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		cred.ExpiresAt = &t
	}
	cred.Scope = scope.String

	return &cred, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nonEmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
