package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to every account password
const MinPasswordLength = 6

// BcryptCost is a variable so tests can lower it
var BcryptCost = 12

// PasswordTooShort reports whether password is below MinPasswordLength
func PasswordTooShort(password string) bool {
	return len(password) < MinPasswordLength
}

// HashPassword bcrypt-hashes a plain password. Passwords over 72 bytes are
// rejected by bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
