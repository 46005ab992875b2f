// Package crypto seals API keys stored in the config file behind a numeric PIN.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Prefix marks a sealed value; plain keys never start with it
const Prefix = "enc:v1:"

const (
	saltSize   = 16
	nonceSize  = 12
	keySize    = 32 // AES-256
	iterations = 100000
)

var (
	// ErrInvalidPIN is returned for PINs that are not 4 to 8 digits
	ErrInvalidPIN = errors.New("PIN must be 4 to 8 digits")

	// ErrWrongPIN is returned when a sealed value cannot be opened
	ErrWrongPIN = errors.New("cannot decrypt: wrong PIN or corrupted value")

	// ErrNotSealed is returned by Open for values without Prefix
	ErrNotSealed = errors.New("value is not encrypted")

	pinRegex = regexp.MustCompile(`^\d{4,8}$`)
)

// ValidatePIN checks the PIN format
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

// IsSealed reports whether s was produced by Seal
func IsSealed(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

// Seal encrypts plaintext with AES-256-GCM under a PBKDF2 key derived from pin.
// The result is Prefix followed by base64(salt | nonce | ciphertext).
func Seal(plaintext, pin string) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}

	buf := make([]byte, saltSize+nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	salt, nonce := buf[:saltSize], buf[saltSize:]

	gcm, err := newGCM(pin, salt)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(buf, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal
func Open(sealed, pin string) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrNotSealed
	}
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, Prefix))
	// a GCM tag is 16 bytes
	if err != nil || len(data) < saltSize+nonceSize+16 {
		return "", ErrWrongPIN
	}
	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]

	gcm, err := newGCM(pin, salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, data[saltSize+nonceSize:], nil)
	if err != nil {
		return "", ErrWrongPIN
	}
	return string(plaintext), nil
}

func newGCM(pin string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(pin), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
