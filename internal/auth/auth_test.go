package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/auth"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{revoked: make(map[string]time.Duration)}
}

func (d *memoryDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = ttl
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

func TestTokenService_IssueAndResolve(t *testing.T) {
	svc := auth.NewTokenService("secret", time.Hour, nil)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	userID, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_ResolveFailures(t *testing.T) {
	svc := auth.NewTokenService("secret", time.Hour, nil)
	other := auth.NewTokenService("other-secret", time.Hour, nil)
	expired := auth.NewTokenService("secret", -time.Minute, nil)

	foreign, err := other.Issue("user-1")
	require.NoError(t, err)
	stale, err := expired.Issue("user-1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"iss": "directchat-service",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
	}{
		{"missing", ""},
		{"malformed", "not-a-jwt"},
		{"wrong signature", foreign},
		{"expired", stale},
		{"unsigned", noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := svc.Resolve(context.Background(), tt.credential)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
			assert.Empty(t, userID)
		})
	}
}

func TestTokenService_Revoke(t *testing.T) {
	denylist := newMemoryDenylist()
	svc := auth.NewTokenService("secret", time.Hour, denylist)
	ctx := context.Background()

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	require.Len(t, denylist.revoked, 1)
	for _, ttl := range denylist.revoked {
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	}

	// A second token for the same user is unaffected.
	fresh, err := svc.Issue("user-1")
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, fresh)
	assert.NoError(t, err)
}

func TestTokenService_RevokeInvalidTokenIsNoop(t *testing.T) {
	denylist := newMemoryDenylist()
	svc := auth.NewTokenService("secret", time.Hour, denylist)

	assert.NoError(t, svc.Revoke(context.Background(), "garbage"))
	assert.Empty(t, denylist.revoked)
}

func TestTokenService_DenylistErrorFailsClosed(t *testing.T) {
	denylist := newMemoryDenylist()
	denylist.err = errors.New("redis down")
	svc := auth.NewTokenService("secret", time.Hour, denylist)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)

	hash, err := auth.HashPassword("correct horse")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$2"))

	match, err := auth.ComparePassword("correct horse", hash)
	req.NoError(err)
	req.True(match)

	match, err = auth.ComparePassword("battery staple", hash)
	req.NoError(err)
	req.False(match)
}

func TestSignUpValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     auth.SignUpRequest
		wantErr bool
	}{
		{"valid", auth.SignUpRequest{FullName: "Ada", Email: "ada@example.com", Password: "longenough"}, false},
		{"missing name", auth.SignUpRequest{Email: "ada@example.com", Password: "longenough"}, true},
		{"invalid email", auth.SignUpRequest{FullName: "Ada", Email: "ada", Password: "longenough"}, true},
		{"short password", auth.SignUpRequest{FullName: "Ada", Email: "ada@example.com", Password: "short"}, true},
		{"password too long", auth.SignUpRequest{FullName: "Ada", Email: "ada@example.com", Password: strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateSignUp(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignUpNormalize(t *testing.T) {
	req := auth.SignUpRequest{FullName: "  Ada  ", Email: " Ada@Example.COM "}
	req.Normalize()

	assert.Equal(t, "Ada", req.FullName)
	assert.Equal(t, "ada@example.com", req.Email)
}

func TestCredentialFromRequest(t *testing.T) {
	t.Run("bearer header wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws?token=query", nil)
		r.Header.Set("Authorization", "Bearer header")
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie"})
		assert.Equal(t, "header", auth.CredentialFromRequest(r))
	})

	t.Run("query before cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws?token=query", nil)
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie"})
		assert.Equal(t, "query", auth.CredentialFromRequest(r))
	})

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie"})
		assert.Equal(t, "cookie", auth.CredentialFromRequest(r))
	})

	t.Run("non bearer header ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Basic abc")
		assert.Empty(t, auth.CredentialFromRequest(r))
	})
}
