package crypto

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestAESRoundTrip(t *testing.T) {
	c, err := NewAES(testKey())
	if err != nil {
		t.Fatalf("NewAES: %v", err)
	}

	inputs := []string{
		"jane.doe@example.com",
		"a longer narrative with punctuation, digits 123, and unicode é",
		"x",
	}

	for _, plaintext := range inputs {
		encrypted, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if encrypted == plaintext {
			t.Errorf("ciphertext must differ from plaintext for %q", plaintext)
		}

		decrypted, err := c.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", decrypted, plaintext)
		}
	}
}

func TestAESEmptyPassthrough(t *testing.T) {
	c, err := NewAES(testKey())
	if err != nil {
		t.Fatalf("NewAES: %v", err)
	}

	if out, err := c.Encrypt(""); err != nil || out != "" {
		t.Errorf("Encrypt(\"\") = %q, %v", out, err)
	}
	if out, err := c.Decrypt(""); err != nil || out != "" {
		t.Errorf("Decrypt(\"\") = %q, %v", out, err)
	}
}

func TestAESNonceVariation(t *testing.T) {
	c, err := NewAES(testKey())
	if err != nil {
		t.Fatalf("NewAES: %v", err)
	}

	a, _ := c.Encrypt("same value")
	b, _ := c.Encrypt("same value")
	if a == b {
		t.Error("two encryptions of the same value must not collide")
	}
}

func TestAESRejectsBadKey(t *testing.T) {
	if _, err := NewAES([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestAESDecryptRejectsGarbage(t *testing.T) {
	c, err := NewAES(testKey())
	if err != nil {
		t.Fatalf("NewAES: %v", err)
	}

	if _, err := c.Decrypt("not base64 !!!"); err == nil {
		t.Error("expected error on invalid base64")
	}
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte("ab"))); err == nil {
		t.Error("expected error on truncated ciphertext")
	}
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0}, 40))); err == nil {
		t.Error("expected error on forged ciphertext")
	}
}

func TestIdentityPassthrough(t *testing.T) {
	c := Identity{}

	out, err := c.Encrypt("plain value")
	if err != nil || out != "plain value" {
		t.Errorf("Encrypt = %q, %v", out, err)
	}
	out, err = c.Decrypt("plain value")
	if err != nil || out != "plain value" {
		t.Errorf("Decrypt = %q, %v", out, err)
	}
}

func TestNewCipherSelection(t *testing.T) {
	c, err := NewCipher(&Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewCipher disabled: %v", err)
	}
	if _, ok := c.(Identity); !ok {
		t.Errorf("disabled config must yield Identity, got %T", c)
	}

	key := base64.StdEncoding.EncodeToString(testKey())
	c, err = NewCipher(&Config{Enabled: true, Key: key})
	if err != nil {
		t.Fatalf("NewCipher enabled: %v", err)
	}
	if _, ok := c.(Identity); ok {
		t.Error("enabled config must not yield Identity")
	}

	if _, err := NewCipher(&Config{Enabled: true, Key: "%%%"}); err == nil {
		t.Error("expected error for invalid key encoding")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Enabled: false}
	if err := cfg.Finalize(nil); err != nil {
		t.Errorf("disabled config must validate, got %v", err)
	}

	cfg = &Config{Enabled: true, Key: base64.StdEncoding.EncodeToString([]byte("too short"))}
	err := cfg.Finalize(nil)
	if err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("expected key length error, got %v", err)
	}

	cfg = &Config{Enabled: true, Key: base64.StdEncoding.EncodeToString(testKey())}
	if err := cfg.Finalize(nil); err != nil {
		t.Errorf("valid key must pass, got %v", err)
	}
}
