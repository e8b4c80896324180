package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer("correct horse battery staple master key")
	require.NoError(t, err)
	return s
}

func TestNewSealerRejectsEmptyKey(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s := newTestSealer(t)

	for _, plaintext := range []string{
		"",
		"a",
		"plaid-client-secret-1234567890",
		"日本語のシークレット値",
		`{"key":"value","nested":{"n":1}}`,
	} {
		sealed, err := s.Encrypt(plaintext)
		require.NoError(t, err)

		opened, err := s.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	s := newTestSealer(t)

	first, err := s.Encrypt("same secret")
	require.NoError(t, err)
	second, err := s.Encrypt("same secret")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptRejectsTamperingAnywhere(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Encrypt("secret-value")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)

	// Flipping any single byte of the envelope must fail authentication.
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		_, err := s.Decrypt(base64.StdEncoding.EncodeToString(tampered))
		assert.ErrorIs(t, err, ErrInvalidCiphertext, "byte %d", i)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	s := newTestSealer(t)

	_, err := s.Decrypt("not base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = s.Decrypt(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	s := newTestSealer(t)
	other, err := NewSealer("a completely different master key value")
	require.NoError(t, err)

	sealed, err := s.Encrypt("secret-value")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}
