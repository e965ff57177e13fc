package security

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost keeps a single hash in the tens of milliseconds on
// commodity hardware.
const passwordCost = 12

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(h), err
}

// VerifyPassword reports whether password matches digest. A malformed
// digest is never a panic or an error to the caller: it logs and
// returns false.
func VerifyPassword(digest, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		log.Printf("password verification error: %v", err)
	}
	return err == nil
}
