package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"github.com/jordanlanch/obramap/pkg/domain"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted
const MinPasswordLength = 6

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a hashed password with a plain text password
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidateNewPassword rejects short passwords and mismatched confirmations
// before anything reaches the account store.
func ValidateNewPassword(password, confirmation string) error {
	if password != confirmation {
		return domain.NewValidationError("As senhas não coincidem.")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return domain.NewAuthError(domain.ErrCodeWeakPassword)
	}
	return nil
}

// HashToken hashes an opaque token using SHA256 for storage in Redis
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateToken returns 32 random bytes hex-encoded
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
