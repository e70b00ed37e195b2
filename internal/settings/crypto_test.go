package settings

import (
	"bytes"
	"errors"
	"testing"
)

func TestCryptoEncryptDecrypt(t *testing.T) {
	crypto, err := NewCrypto("test-passphrase")
	if err != nil {
		t.Fatalf("NewCrypto() error = %v", err)
	}

	plaintext := []byte(`[{"provider":"marketstack","api_key":"abc"}]`)

	ciphertext, err := crypto.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if bytes.Contains(ciphertext, []byte("marketstack")) {
		t.Error("Encrypt() leaked plaintext")
	}

	decrypted, err := crypto.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
	}
}

func TestCryptoFreshSaltPerCall(t *testing.T) {
	crypto, _ := NewCrypto("test-passphrase")

	a, _ := crypto.Encrypt([]byte("same"))
	b, _ := crypto.Encrypt([]byte("same"))
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestCryptoWrongPassphrase(t *testing.T) {
	c1, _ := NewCrypto("passphrase1")
	c2, _ := NewCrypto("passphrase2")

	ciphertext, err := c1.Encrypt([]byte("secret data"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := c2.Decrypt(ciphertext); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() error = %v, want ErrDecrypt", err)
	}
}

func TestCryptoDecryptShortInput(t *testing.T) {
	crypto, _ := NewCrypto("test-passphrase")

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"shorter than salt", []byte("short")},
		{"salt without nonce", make([]byte, saltSize+4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := crypto.Decrypt(tt.data); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}

func TestNewCryptoRequiresPassphrase(t *testing.T) {
	if _, err := NewCrypto(""); !errors.Is(err, ErrPassphraseRequired) {
		t.Errorf("NewCrypto(\"\") error = %v, want ErrPassphraseRequired", err)
	}
}
