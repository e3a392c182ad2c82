package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost         = 12
	ClientSecretLength = 32 // 256 bits
	MinSecretLen       = 16
)

// HashSecret bcrypt-hashes a client secret for ADMIN_CLIENT_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	if len(secret) < MinSecretLen {
		return "", fmt.Errorf("secret must be at least %d characters", MinSecretLen)
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareSecret checks secret against a bcrypt hash.
func CompareSecret(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}

// GenerateClientSecret returns a random URL-safe secret.
func GenerateClientSecret() (string, error) {
	bytes := make([]byte, ClientSecretLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate client secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
