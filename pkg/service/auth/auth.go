// Package auth issues the JWT bearer tokens that protect the payment
// API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/railpay/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a verified token carries no
	// usable subject claim.
	ErrInvalidToken = errors.New("invalid token")
)

// CredentialStore looks up a user's password hash by username.
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (userID uuid.UUID, passwordHash []byte, err error)
}

// Service verifies credentials and issues tokens.
type Service struct {
	cfg    config.JwtConfig
	creds  CredentialStore
	logger *slog.Logger
}

// New creates an auth service.
func New(cfg config.JwtConfig, creds CredentialStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		creds:  creds,
		logger: logger.With("service", "Auth"),
	}
}

// Login verifies the credentials and returns a signed JWT.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	userID, hash, err := s.creds.Lookup(ctx, username)
	if err != nil {
		s.logger.Info("login failed: unknown user", "username", username)
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		s.logger.Info("login failed: bad password", "username", username)
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(s.cfg.Expiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// GetCurrentUserID extracts the authenticated user's ID from a
// verified token.
func (s *Service) GetCurrentUserID(token *jwt.Token) (uuid.UUID, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return userID, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
