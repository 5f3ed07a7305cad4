package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-api/internal/config"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/repository/repositorytest"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

func newAuthService(users *repositorytest.Users) *AuthService {
	return NewAuthService(config.AuthConfig{
		JWTSecret:    "test-secret",
		TokenTTLDays: 7,
		BcryptCost:   bcrypt.MinCost,
	}, users)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code)
}

func TestRegisterHashesPassword(t *testing.T) {
	users := repositorytest.NewUsers()
	svc := newAuthService(users)

	user, err := svc.Register(context.Background(), "user@example.com", "userpass", domain.RoleUser)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEqual(t, "userpass", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("userpass")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := repositorytest.NewUsers()
	svc := newAuthService(users)

	_, err := svc.Register(context.Background(), "user@example.com", "userpass", domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user@example.com", "otherpass", domain.RoleAgent)
	requireCode(t, err, "EMAIL_TAKEN")
}

func TestLoginIssuesToken(t *testing.T) {
	users := repositorytest.NewUsers()
	svc := newAuthService(users)

	registered, err := svc.Register(context.Background(), "agent@example.com", "agentpass", domain.RoleAgent)
	require.NoError(t, err)

	user, token, _, err := svc.Login(context.Background(), "agent@example.com", "agentpass")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, registered.ID, claims.UserID)
	require.Equal(t, domain.RoleAgent, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	users := repositorytest.NewUsers()
	svc := newAuthService(users)

	_, err := svc.Register(context.Background(), "user@example.com", "userpass", domain.RoleUser)
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "user@example.com", "wrongpass")
	requireCode(t, err, "INVALID_CREDENTIALS")
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newAuthService(repositorytest.NewUsers())

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	requireCode(t, err, "INVALID_CREDENTIALS")
}
