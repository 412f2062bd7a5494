package repositories

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = bcrypt.DefaultCost

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// HashPassword returns the bcrypt hash of secret.
func HashPassword(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// checkPassword compares secret with hash. An empty hash (unknown user)
// still pays for one bcrypt comparison so both paths take similar time.
func checkPassword(hash, secret string) (bool, error) {
	if hash == "" {
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-user"), bcryptCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check password: %w", err)
	}
	return true, nil
}
