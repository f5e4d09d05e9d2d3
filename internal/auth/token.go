// Package auth implements the Identity Resolver: it issues signed identity
// tokens at sign-in and resolves them back to a user id at every handshake.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"directchat/backend/internal/apperr"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "directchat-service"

// Claims is the payload of an identity token. Subject holds the user id and
// ID (jti) identifies the token for revocation.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and resolves HS256 identity tokens.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
}

func NewTokenService(secret string, ttl time.Duration, denylist Denylist) *TokenService {
	if denylist == nil {
		denylist = NopDenylist{}
	}
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		denylist: denylist,
	}
}

// Issue creates a signed token for userID that expires after the configured TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Resolve returns the user id carried by credential. Every failure is
// reported as apperr.ErrUnauthenticated.
func (s *TokenService) Resolve(ctx context.Context, credential string) (string, error) {
	claims, err := s.ResolveClaims(ctx, credential)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ResolveClaims validates signature, algorithm, issuer, expiry and revocation.
func (s *TokenService) ResolveClaims(ctx context.Context, credential string) (*Claims, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: token missing", apperr.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, jwt.ErrTokenInvalidClaims)
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Fail closed: an unreachable denylist must not admit revoked tokens.
		return nil, fmt.Errorf("%w: revocation check: %v", apperr.ErrUnauthenticated, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", apperr.ErrUnauthenticated)
	}
	return claims, nil
}

// Revoke denylists credential until its natural expiry. Already invalid
// credentials are ignored.
func (s *TokenService) Revoke(ctx context.Context, credential string) error {
	claims, err := s.ResolveClaims(ctx, credential)
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, ttl)
}
