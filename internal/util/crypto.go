package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Iterations is fixed: stored hashes would stop verifying if it were a
// runtime knob.
const (
	pbkdf2Iterations = 100_000
	saltBytes        = 8 // 16 hex characters
	hashBytes        = 32
)

// NewSalt returns fresh per-account salt: 16 hex characters from crypto/rand.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPIN derives a one-way PBKDF2+SHA256 hash of the PIN under the given
// salt. The PIN itself is never stored.
func HashPIN(pin, salt string) string {
	key := pbkdf2.Key([]byte(pin), []byte(salt), pbkdf2Iterations, hashBytes, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPIN recomputes the hash and compares in constant time.
func VerifyPIN(pin, salt, expectedHash string) bool {
	if pin == "" || salt == "" || expectedHash == "" {
		return false
	}
	computed := HashPIN(pin, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedHash)) == 1
}

// ValidPIN enforces the PIN format policy: 4 to 6 numeric digits.
func ValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
