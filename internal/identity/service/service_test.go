package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdash/zapdash/internal/identity/domain"
	"github.com/zapdash/zapdash/internal/identity/repository"
	dbpkg "github.com/zapdash/zapdash/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := dbpkg.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(zap.NewNop(), repository.NewRepository(conn), repository.NewSessionRepository(conn), node)
	return svc, conn
}

func createAccount(t *testing.T, svc domain.Service, email string) *domain.User {
	t.Helper()

	user, err := svc.CreateAccount(context.Background(), domain.CreateAccountRequest{
		Email:       email,
		Password:    "correct-horse",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	return user
}

func TestCreateAccountNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)

	user := createAccount(t, svc, "  Alice@Acme.Test ")
	assert.Equal(t, "alice@acme.test", user.Email)
	assert.NotEmpty(t, user.ExternalID)
	require.NotNil(t, user.PasswordHash)
	assert.NotContains(t, *user.PasswordHash, "correct-horse")
}

func TestCreateAccountRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	createAccount(t, svc, "alice@acme.test")

	_, err := svc.CreateAccount(context.Background(), domain.CreateAccountRequest{
		Email:    "ALICE@acme.test",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestCreateAccountRejectsWeakInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount(context.Background(), domain.CreateAccountRequest{Email: "not-an-email", Password: "correct-horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.CreateAccount(context.Background(), domain.CreateAccountRequest{Email: "alice@acme.test", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	user := createAccount(t, svc, "alice@acme.test")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@acme.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	createAccount(t, svc, "alice@acme.test")

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@acme.test",
		Password: "wrong-horse",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@acme.test",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "unknown user must look like a bad password")
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)
	createAccount(t, svc, "alice@acme.test")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@acme.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.RawToken))

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, conn := newTestService(t)
	createAccount(t, svc, "alice@acme.test")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@acme.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, conn.Model(&domain.Session{}).
		Where("id = ?", result.SessionID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = svc.Authenticate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestDeleteAccountRemovesSessions(t *testing.T) {
	svc, _ := newTestService(t)
	user := createAccount(t, svc, "alice@acme.test")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@acme.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(context.Background(), user.ID))

	_, err = svc.GetUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestRevokeUserSessions(t *testing.T) {
	svc, _ := newTestService(t)
	user := createAccount(t, svc, "alice@acme.test")

	first, err := svc.Login(context.Background(), domain.LoginRequest{Email: "alice@acme.test", Password: "correct-horse"})
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), domain.LoginRequest{Email: "alice@acme.test", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeUserSessions(context.Background(), user.ID))

	_, err = svc.Authenticate(context.Background(), first.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
	_, err = svc.Authenticate(context.Background(), second.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}
