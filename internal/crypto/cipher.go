package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ivSize is the GCM nonce length in bytes. The stored format predates this
// implementation and uses a 16-byte IV, so the GCM instance is created with
// an explicit nonce size rather than the 12-byte default.
const ivSize = 16

// keySize is the AES-256 key length in bytes.
const keySize = 32

var (
	// ErrMalformedCiphertext indicates a stored value that does not parse as
	// three colon-separated hex segments.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrAuthenticationFailed indicates the GCM authentication tag did not
	// verify: the value was tampered with or encrypted under a different key.
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")
)

// Cipher encrypts and decrypts secret strings for storage at rest.
// It uses AES-256-GCM with a fresh random IV per encryption.
//
// The stored format is `<iv_hex>:<tag_hex>:<ciphertext_hex>`, three
// lowercase-hex segments that are self-describing: no external state is
// needed to decrypt beyond the process key.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a raw 32-byte AES-256 key.
func New(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// KeyFromBase64 decodes a base64-encoded AES-256 key, typically sourced from
// the ENCRYPTION_KEY configuration secret. The key must decode to exactly
// 32 bytes; anything else is a startup error.
func KeyFromBase64(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("encryption key is not set")
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must decode to %d bytes, got %d", keySize, len(key))
	}

	return key, nil
}

// GenerateKey returns a fresh random AES-256 key, base64 encoded for
// configuration. Generate once and keep it: encrypted rows are unreadable
// under any other key.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate encryption key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh random IV. Encrypting the same
// plaintext twice yields different outputs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generate IV: %w", err)
	}

	// Seal appends the authentication tag to the ciphertext.
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - c.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It returns ErrMalformedCiphertext when the value
// does not have the expected three-segment shape and ErrAuthenticationFailed
// when the tag does not verify. It never returns unverified plaintext.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedCiphertext, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: bad IV segment: %v", ErrMalformedCiphertext, err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("%w: IV must be %d bytes, got %d", ErrMalformedCiphertext, ivSize, len(iv))
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad tag segment: %v", ErrMalformedCiphertext, err)
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext segment: %v", ErrMalformedCiphertext, err)
	}

	plaintext, err := c.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	return string(plaintext), nil
}
