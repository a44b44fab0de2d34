package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims identify an admin account. The username travels as the registered
// subject; refresh tokens leave Role empty.
type Claims struct {
	jwt.RegisteredClaims

	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"token_type"`
}

func (c Claims) Username() string { return c.Subject }
