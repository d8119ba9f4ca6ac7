// Package security wraps bcrypt for the stored password hashes.
package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned for any hash/password pair that does not verify.
var ErrPasswordMismatch = errors.New("security: password does not match")

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash with a plaintext password.
// A malformed hash is reported as a mismatch, never as a distinct error.
func CheckPassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

var decoy = sync.OnceValues(func() (string, error) {
	return HashPassword("decoy-password-never-matches")
})

// DecoyHash returns a valid bcrypt hash of a throwaway secret, computed once
// per process. Comparing against it costs what a real comparison costs.
func DecoyHash() (string, error) {
	return decoy()
}
