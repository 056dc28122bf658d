// Package crypto implements client-derived envelope encryption:
// PBKDF2-HMAC-SHA256 key derivation feeding AES-256-GCM, producing a
// compact, self-describing binary envelope safe for opaque storage at
// the edge.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen     = 16 // 128-bit salt
	ivLen       = 12 // 96-bit GCM nonce
	keyLen      = 32 // AES-256
	pbkdf2Iters = 100_000
)

// ErrWrongKey is returned by Decrypt when GCM authentication fails —
// the passphrase does not match the one used to encrypt.
var ErrWrongKey = errors.New("crypto: WRONG_KEY")

// ErrMalformed is returned by Decrypt when the envelope is not valid
// base64, or decodes to fewer than saltLen+ivLen bytes.
var ErrMalformed = errors.New("crypto: MALFORMED")

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iters, keyLen, sha256.New)
}

// Encrypt encrypts plaintext with a key derived from passphrase,
// returning a base64-encoded envelope: salt(16) || iv(12) ||
// ciphertext+tag.
func Encrypt(plaintext []byte, passphrase string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generate salt: %w", err)
	}

	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("crypto: generate iv: %w", err)
	}

	key := deriveKey(passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("crypto: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLen)
	if err != nil {
		return "", fmt.Errorf("crypto: new gcm: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, plaintext, nil)

	envelope := make([]byte, 0, saltLen+ivLen+len(ciphertext))
	envelope = append(envelope, salt...)
	envelope = append(envelope, iv...)
	envelope = append(envelope, ciphertext...)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt decrypts a base64 envelope produced by Encrypt using a key
// derived from passphrase.
func Decrypt(envelopeBase64 string, passphrase string) ([]byte, error) {
	envelope, err := base64.StdEncoding.DecodeString(envelopeBase64)
	if err != nil {
		return nil, ErrMalformed
	}
	if len(envelope) < saltLen+ivLen {
		return nil, ErrMalformed
	}

	salt := envelope[:saltLen]
	iv := envelope[saltLen : saltLen+ivLen]
	ciphertext := envelope[saltLen+ivLen:]

	key := deriveKey(passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLen)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongKey
	}
	return plaintext, nil
}
