// Package crypto provides field-level symmetric encryption for values
// persisted at rest. Callers choose which fields to protect; the cipher is a
// true inverse pair so stored values round-trip exactly.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Cipher encrypts and decrypts individual field values.
// Encrypt and Decrypt must be exact inverses. Empty input passes through
// unchanged in both directions.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Identity is a no-op Cipher for reduced-dependency deployments.
// Pipeline behavior must be identical regardless of which Cipher backs
// the encryption boundary.
type Identity struct{}

func (Identity) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (Identity) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

type aesGCM struct {
	aead cipher.AEAD
}

// NewAES creates an AES-256-GCM Cipher from a 32-byte key.
// Output is base64 of nonce||ciphertext.
func NewAES(key []byte) (Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &aesGCM{aead: aead}, nil
}

func (c *aesGCM) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *aesGCM) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}

	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt field: %w", err)
	}

	return string(plaintext), nil
}
