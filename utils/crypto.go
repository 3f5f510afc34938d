package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Credential material for external platform connections is stored encrypted.
// Envelope format is hex(iv):hex(tag):hex(ciphertext) so a row is inspectable
// without ever exposing plaintext.

const credentialAAD = "arc-marketing-intelligence"

var ErrInvalidCredentialEnvelope = errors.New("invalid credential envelope format")

// CredentialCipher encrypts and decrypts connection credentials with AES-256-GCM.
// The key is derived from the configured secret via scrypt.
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher derives a 32-byte key from the secret and prepares the AEAD.
func NewCredentialCipher(secret string) (*CredentialCipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}

	key, err := scrypt.Key([]byte(secret), []byte("arc-credentials"), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &CredentialCipher{aead: aead}, nil
}

// Encrypt seals plaintext into the iv:tag:ciphertext envelope.
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), []byte(credentialAAD))

	// Seal appends the tag to the ciphertext; split it back out for the envelope.
	tagStart := len(sealed) - c.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext)), nil
}

// Decrypt opens an envelope produced by Encrypt.
func (c *CredentialCipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", ErrInvalidCredentialEnvelope
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidCredentialEnvelope
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidCredentialEnvelope
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidCredentialEnvelope
	}
	if len(iv) != c.aead.NonceSize() || len(tag) != c.aead.Overhead() {
		return "", ErrInvalidCredentialEnvelope
	}

	plaintext, err := c.aead.Open(nil, iv, append(ciphertext, tag...), []byte(credentialAAD))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	return string(plaintext), nil
}
