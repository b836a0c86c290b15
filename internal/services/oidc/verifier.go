package oidc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Verifier verifies JWT tokens against the provider's key set
type Verifier struct {
	jwksManager *JWKSManager
	provider    *Provider
	skew        time.Duration
}

var _ TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a new JWT verifier
func NewVerifier(jwksManager *JWKSManager, provider *Provider) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		provider:    provider,
		skew:        30 * time.Second,
	}
}

// Verify verifies a JWT token and extracts claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	cfg := v.provider.Config()
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	jwksURL := v.provider.JWKSURL(ctx)
	keys, err := v.jwksManager.GetJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(cfg.IssuerURL()),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if name, ok := token.Get("name"); ok {
		if s, ok := name.(string); ok {
			claims.Name = s
		}
	}
	if verified, ok := token.Get("email_verified"); ok {
		switch val := verified.(type) {
		case bool:
			claims.EmailVerified = val
		case string:
			claims.EmailVerified = val == "true"
		}
	}

	return claims, nil
}

// IsInvalidToken reports whether err came from a rejected token rather than a provider outage
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
