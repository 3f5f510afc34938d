package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-encryption-secret-32-chars!"

func TestNewCredentialCipher(t *testing.T) {
	t.Run("requires a secret", func(t *testing.T) {
		_, err := NewCredentialCipher("")
		assert.Error(t, err)
	})

	t.Run("accepts a secret", func(t *testing.T) {
		cipher, err := NewCredentialCipher(testSecret)
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})
}

func TestCredentialCipherRoundTrip(t *testing.T) {
	cipher, err := NewCredentialCipher(testSecret)
	require.NoError(t, err)

	plaintext := `{"access_token":"ya29.secret","account_id":"123"}`
	envelope, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)

	// Envelope is hex(iv):hex(tag):hex(ciphertext)
	parts := strings.Split(envelope, ":")
	require.Len(t, parts, 3)
	assert.NotContains(t, envelope, "secret")

	decrypted, err := cipher.Decrypt(envelope)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestCredentialCipherUniqueNonces(t *testing.T) {
	cipher, err := NewCredentialCipher(testSecret)
	require.NoError(t, err)

	first, err := cipher.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := cipher.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCredentialCipherRejectsTampering(t *testing.T) {
	cipher, err := NewCredentialCipher(testSecret)
	require.NoError(t, err)

	envelope, err := cipher.Encrypt("payload")
	require.NoError(t, err)

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		parts := strings.Split(envelope, ":")
		ct := []byte(parts[2])
		if ct[0] == 'a' {
			ct[0] = 'b'
		} else {
			ct[0] = 'a'
		}
		_, err := cipher.Decrypt(parts[0] + ":" + parts[1] + ":" + string(ct))
		assert.Error(t, err)
	})

	t.Run("wrong part count", func(t *testing.T) {
		_, err := cipher.Decrypt("deadbeef:cafebabe")
		assert.ErrorIs(t, err, ErrInvalidCredentialEnvelope)
	})

	t.Run("non-hex content", func(t *testing.T) {
		_, err := cipher.Decrypt("zz:zz:zz")
		assert.Error(t, err)
	})

	t.Run("different secret cannot decrypt", func(t *testing.T) {
		other, err := NewCredentialCipher("another-encryption-secret-32-ch!")
		require.NoError(t, err)
		_, err = other.Decrypt(envelope)
		assert.Error(t, err)
	})
}
