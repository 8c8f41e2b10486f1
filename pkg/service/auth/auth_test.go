package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/railpay/infra/credentials"
	"github.com/amirasaad/railpay/pkg/config"
	"github.com/amirasaad/railpay/pkg/service/auth"
)

func newService(t *testing.T) (*auth.Service, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	store := credentials.NewMemory()
	store.Seed("aisha", userID, hash)

	svc := auth.New(config.JwtConfig{
		Secret: "test-signing-secret",
		Expiry: time.Hour,
	}, store, nil)
	return svc, userID
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	svc, userID := newService(t)

	signed, err := svc.Login(context.Background(), "aisha", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	token, err := jwt.Parse(signed, func(*jwt.Token) (any, error) {
		return []byte("test-signing-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	got, err := svc.GetCurrentUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Login(context.Background(), "aisha", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestGetCurrentUserID_BadSubject(t *testing.T) {
	svc, _ := newService(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
	})
	_, err := svc.GetCurrentUserID(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	token = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{})
	_, err = svc.GetCurrentUserID(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", string(hash))
	assert.True(t, len(hash) > 0)
}
