package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// HashPassword hashes plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with the stored value.
// Rows created before hashing was introduced hold the plaintext; those are
// compared in constant time and reported with needsRehash so the caller can
// upgrade them.
func VerifyPassword(stored, password string) (needsRehash bool, err error) {
	if stored == "" {
		return false, errors.New("password hash is empty")
	}
	if isBcryptHash(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
			return false, ErrUnauthorized
		}
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return false, ErrUnauthorized
	}
	return true, nil
}

// burnPasswordCheck spends roughly the same time as a real bcrypt comparison
// so unknown usernames are not distinguishable by latency.
func burnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
