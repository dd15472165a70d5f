package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolveValidToken(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", jwt.MapClaims{"id": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	userID, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestResolveSubjectFallback(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", jwt.MapClaims{"sub": "u42"})

	userID, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u42", userID)
}

func TestResolveWrongSecret(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "other", jwt.MapClaims{"id": "u1"})

	_, err := resolver.Resolve(context.Background(), token)
	require.Error(t, err)
}

func TestResolveExpiredToken(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", jwt.MapClaims{"id": "u1", "exp": time.Now().Add(-time.Hour).Unix()})

	_, err := resolver.Resolve(context.Background(), token)
	require.Error(t, err)
}

func TestResolveMissingUserID(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token := signToken(t, "secret", jwt.MapClaims{"foo": "bar"})

	_, err := resolver.Resolve(context.Background(), token)
	require.Error(t, err)
}
