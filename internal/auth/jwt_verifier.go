package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"episodic/internal/domain"
)

// allowedAlgs pins the signing algorithms Supabase issues
var allowedAlgs = []string{"RS256", "ES256"}

type jwksVerifier struct {
	keys   jwt.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier fetches signing keys from a JWKS endpoint. keyfunc caches
// the set and refreshes it on unknown key ids.
func NewJWTVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (TokenVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return &jwksVerifier{keys: jwks.Keyfunc, logger: logger}, nil
}

// NewVerifierWithKeyfunc builds a verifier over a fixed key source
func NewVerifierWithKeyfunc(keys jwt.Keyfunc, logger *slog.Logger) TokenVerifier {
	return &jwksVerifier{keys: keys, logger: logger}
}

func (v *jwksVerifier) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keys, jwt.WithValidMethods(allowedAlgs))
	if err != nil || !token.Valid {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Anonymous sessions cannot own episodes
	if claims.Role != "authenticated" {
		v.logger.Warn("token has non-author role", "role", claims.Role, "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op; keyfunc owns its refresh goroutine via the ctx passed in.
func (v *jwksVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
