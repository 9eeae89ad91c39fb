package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpupo63/campus-connect-backend/errs"
)

// IdentityVerifier turns a bearer token into the identity provider's subject identifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// SessionClaims are the claims read from a Clerk session token
type SessionClaims struct {
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks RS256 session tokens against the provider's PEM public key
// (CLERK_JWT_KEY) without a network round trip.
type JWTVerifier struct {
	key    *rsa.PublicKey
	leeway time.Duration
}

func NewJWTVerifier(pemKey string) (*JWTVerifier, error) {
	if strings.TrimSpace(pemKey) == "" {
		return nil, errors.New("JWT public key cannot be empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse JWT public key: %w", err)
	}
	return &JWTVerifier{key: key, leeway: 5 * time.Second}, nil
}

// Verify returns the token's subject. Every failure is an InvalidToken error.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil {
		return "", errs.NewInvalidTokenError(err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", errs.NewInvalidTokenError(errors.New("invalid token"))
	}
	if claims.Subject == "" {
		return "", errs.NewInvalidTokenError(errors.New("token has no subject"))
	}
	return claims.Subject, nil
}

// ExtractToken reads the token from an Authorization header value in "Bearer <token>" form.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errs.NewMissingTokenError()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errs.NewUnauthorizedError("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errs.NewMissingTokenError()
	}
	return token, nil
}
