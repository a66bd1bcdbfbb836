// Package auth signs users in and manages their accounts.
//
// Passwords are stored as bcrypt hashes. A successful login yields an HS256
// JWT that the web layer carries in a cookie or an Authorization header.
package auth

import "golang.org/x/crypto/bcrypt"

// Accepted plain password lengths. bcrypt reads at most 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// HashPassword returns the bcrypt hash of plain at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches hash. A malformed hash never matches.
func CheckPassword(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}
