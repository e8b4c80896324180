// Package crypto seals per-tenant integration secrets with AES-256-GCM.
//
// Envelope layout: base64(salt || iv || tag || ciphertext) with a 64-byte
// random salt, a 16-byte IV and a 16-byte authentication tag. The data
// key is derived from the server-wide master key and the per-value salt,
// so no two values share a key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize = 64
	ivSize   = 16
	tagSize  = 16
	keySize  = 32
	kdfIters = 2145
)

var ErrInvalidCiphertext = errors.New("invalid or tampered ciphertext")

// Sealer encrypts and decrypts strings under a master key.
type Sealer struct {
	masterKey []byte
}

// NewSealer creates a sealer from the configured master key.
func NewSealer(masterKey string) (*Sealer, error) {
	if masterKey == "" {
		return nil, errors.New("master key cannot be empty")
	}
	return &Sealer{masterKey: []byte(masterKey)}, nil
}

func (s *Sealer) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(s.masterKey, salt, kdfIters, keySize, sha512.New)
}

// Encrypt seals plaintext and returns the base64 envelope.
func (s *Sealer) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(s.deriveKey(salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", err
	}

	// Seal appends ciphertext||tag; the envelope stores tag first.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, saltSize+ivSize+tagSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a base64 envelope produced by Encrypt. Any tampering
// fails the authentication tag check and returns ErrInvalidCiphertext.
func (s *Sealer) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < saltSize+ivSize+tagSize {
		return "", ErrInvalidCiphertext
	}

	salt := raw[:saltSize]
	iv := raw[saltSize : saltSize+ivSize]
	tag := raw[saltSize+ivSize : saltSize+ivSize+tagSize]
	ciphertext := raw[saltSize+ivSize+tagSize:]

	block, err := aes.NewCipher(s.deriveKey(salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
