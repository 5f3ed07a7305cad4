package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-api/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 7*24*time.Hour)
	user := &domain.User{ID: 42, Email: "agent@example.com", Role: domain.RoleAgent}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "agent@example.com", claims.Email)
	require.Equal(t, domain.RoleAgent, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", time.Hour)
	token, _, err := tm.GenerateToken(&domain.User{ID: 1, Email: "user@example.com", Role: domain.RoleUser})
	require.NoError(t, err)

	other := NewTokenManager("secret-b", time.Hour)
	_, err = other.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	tm.ttl = -time.Minute
	token, _, err := tm.GenerateToken(&domain.User{ID: 1, Email: "user@example.com", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	_, err := tm.ParseToken("not-a-token")
	require.Error(t, err)
}
