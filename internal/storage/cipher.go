package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// FieldCipher is the opaque reversible transform applied to the username
// field before it reaches the store. Because ciphertexts carry no order
// or case information, the store cannot meaningfully sort or filter on
// the field; the repository layer compensates in memory.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// aesFieldCipher is an AES-GCM cipher with a nonce derived from the
// plaintext, making encryption deterministic so the store's unique index
// on the ciphertext still detects duplicate usernames.
type aesFieldCipher struct {
	aead cipher.AEAD
	key  []byte
}

// NewFieldCipher builds a FieldCipher from a 32-byte key.
func NewFieldCipher(key []byte) (FieldCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("field cipher: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("field cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("field cipher: %w", err)
	}
	return &aesFieldCipher{aead: aead, key: key}, nil
}

func (c *aesFieldCipher) nonce(plaintext string) []byte {
	sum := sha256.Sum256(append(append([]byte{}, c.key...), plaintext...))
	return sum[:c.aead.NonceSize()]
}

func (c *aesFieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := c.nonce(plaintext)
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	out := append(append([]byte{}, nonce...), sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (c *aesFieldCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("field cipher: %w", err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("field cipher: ciphertext too short")
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("field cipher: %w", err)
	}
	return string(plain), nil
}

// NoopCipher passes values through unchanged. The in-memory store uses it
// since nothing leaves the process.
type NoopCipher struct{}

func (NoopCipher) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (NoopCipher) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }
