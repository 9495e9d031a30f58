package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefixes identifies hashes written by bcrypt implementations.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// IsBcryptHash reports whether hash was produced by bcrypt.
func IsBcryptHash(hash string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}

// LegacyHash returns the unsalted hex SHA-256 digest older accounts were
// stored with.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword verifies password against a stored hash. The hash format
// decides the algorithm: a bcrypt mismatch is final and never falls back to
// the legacy digest. needsUpgrade is true when a legacy hash matched and
// should be replaced with a bcrypt hash.
func CheckPassword(hash, password string) (ok bool, needsUpgrade bool) {
	if hash == "" {
		return false, false
	}
	if IsBcryptHash(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
	}
	legacy := LegacyHash(password)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(legacy)) == 1 {
		return true, true
	}
	return false, false
}
