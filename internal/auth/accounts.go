package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Account is an admin API user. PasswordHash is a bcrypt hash.
type Account struct {
	Username     string
	PasswordHash string
	Role         string
}

// Accounts is the fixed set of admin users loaded from config.
type Accounts []Account

// Authenticate checks username and password. Unknown users and wrong
// passwords return the same error.
func (a Accounts) Authenticate(username, password string) (Account, error) {
	for _, acc := range a {
		if subtle.ConstantTimeCompare([]byte(acc.Username), []byte(username)) != 1 {
			continue
		}
		if err := VerifyPassword(acc.PasswordHash, password); err != nil {
			return Account{}, ErrInvalidCredentials
		}
		return acc, nil
	}
	// Spend comparable time on unknown users.
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
	return Account{}, ErrInvalidCredentials
}

// Lookup finds an account by username, for refresh.
func (a Accounts) Lookup(username string) (Account, bool) {
	for _, acc := range a {
		if acc.Username == username {
			return acc, true
		}
	}
	return Account{}, false
}

// VerifyPassword compares a bcrypt hash with a plaintext password.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidCredentials)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var dummyHash = sync.OnceValue(func() []byte {
	b, _ := bcrypt.GenerateFromPassword([]byte("form-shield"), bcrypt.DefaultCost)
	return b
})
