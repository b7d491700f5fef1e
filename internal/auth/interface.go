package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of Supabase access-token claims the API relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"` // "authenticated" or "anon"
}

// UserID is the author id; every episode, paragraph and card is scoped by it.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*Claims, error)
	Close() error
}
