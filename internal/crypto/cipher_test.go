package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}
	return key
}

func TestNew_KeySize(t *testing.T) {
	tests := []struct {
		name    string
		keyLen  int
		wantErr bool
	}{
		{"valid 32-byte key", 32, false},
		{"too short", 16, true},
		{"too long", 64, true},
		{"empty", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(make([]byte, tt.keyLen))
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"access token", "ya29.a0AfH6SMBexample"},
		{"refresh token", "1//0gexample-refresh"},
		{"empty string", ""},
		{"special chars", "tok!@#$%^&*()_+-={}[]|:;<>?,./"},
		{"unicode", "tøken_секрет_令牌"},
		{"long value", strings.Repeat("x", 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := c.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			if ciphertext == tt.plaintext && tt.plaintext != "" {
				t.Error("Encrypt() returned plaintext unchanged")
			}

			decrypted, err := c.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if decrypted != tt.plaintext {
				t.Errorf("Decrypt() = %q, want %q", decrypted, tt.plaintext)
			}
		})
	}
}

func TestCipher_Format(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ciphertext, err := c.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		t.Fatalf("Encrypt() produced %d segments, want 3", len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("IV segment is not hex: %v", err)
	}
	if len(iv) != 16 {
		t.Errorf("IV length = %d bytes, want 16", len(iv))
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("tag segment is not hex: %v", err)
	}
	if len(tag) != 16 {
		t.Errorf("tag length = %d bytes, want 16", len(tag))
	}

	if _, err := hex.DecodeString(parts[2]); err != nil {
		t.Fatalf("ciphertext segment is not hex: %v", err)
	}
}

func TestCipher_NonceUniqueness(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first, err := c.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	second, err := c.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if first == second {
		t.Error("encrypting the same plaintext twice produced identical ciphertexts (IV reuse)")
	}
	if strings.Split(first, ":")[0] == strings.Split(second, ":")[0] {
		t.Error("IV segment repeated across encryptions")
	}
}

func TestCipher_TamperDetection(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ciphertext, err := c.Encrypt("tamper me")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	flipHexBit := func(segment string) string {
		raw, _ := hex.DecodeString(segment)
		raw[0] ^= 0x01
		return hex.EncodeToString(raw)
	}

	parts := strings.Split(ciphertext, ":")

	tests := []struct {
		name     string
		tampered string
	}{
		{"flipped tag bit", parts[0] + ":" + flipHexBit(parts[1]) + ":" + parts[2]},
		{"flipped ciphertext bit", parts[0] + ":" + parts[1] + ":" + flipHexBit(parts[2])},
		{"flipped IV bit", flipHexBit(parts[0]) + ":" + parts[1] + ":" + parts[2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(tt.tampered)
			if !errors.Is(err, ErrAuthenticationFailed) {
				t.Errorf("Decrypt() error = %v, want ErrAuthenticationFailed", err)
			}
			if got != "" {
				t.Errorf("Decrypt() returned %q on tampered input, want empty", got)
			}
		})
	}
}

func TestCipher_WrongKey(t *testing.T) {
	c1, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c2, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ciphertext, err := c1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := c2.Decrypt(ciphertext); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Decrypt() with wrong key error = %v, want ErrAuthenticationFailed", err)
	}
}

func TestCipher_MalformedCiphertext(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"one segment", "deadbeef"},
		{"two segments", "deadbeef:deadbeef"},
		{"four segments", "de:ad:be:ef"},
		{"non-hex IV", "zzzz:deadbeef:deadbeef"},
		{"non-hex tag", "00112233445566778899aabbccddeeff:zzzz:deadbeef"},
		{"non-hex ciphertext", "00112233445566778899aabbccddeeff:00112233445566778899aabbccddeeff:zzzz"},
		{"short IV", "deadbeef:00112233445566778899aabbccddeeff:deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decrypt(tt.input); !errors.Is(err, ErrMalformedCiphertext) {
				t.Errorf("Decrypt(%q) error = %v, want ErrMalformedCiphertext", tt.input, err)
			}
		})
	}
}

func TestKeyFromBase64(t *testing.T) {
	valid, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid key", valid, false},
		{"empty", "", true},
		{"not base64", "!!!not-base64!!!", true},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("short")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := KeyFromBase64(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("KeyFromBase64() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(key) != 32 {
				t.Errorf("KeyFromBase64() key length = %d, want 32", len(key))
			}
		})
	}
}

func TestGenerateKey_Random(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	k2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if k1 == k2 {
		t.Error("GenerateKey() produced identical keys")
	}
}
