// Package credentials provides the credential store backing API login.
package credentials

import (
	"context"
	"sync"

	"github.com/amirasaad/railpay/pkg/service/auth"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory credential store seeded at startup.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]record
}

type record struct {
	userID uuid.UUID
	hash   []byte
}

// NewMemory creates an empty credential store.
func NewMemory() *MemoryStore {
	return &MemoryStore{users: make(map[string]record)}
}

// Seed registers a username with a bcrypt password hash.
func (s *MemoryStore) Seed(username string, userID uuid.UUID, passwordHash []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = record{userID: userID, hash: passwordHash}
}

// Lookup implements auth.CredentialStore.
func (s *MemoryStore) Lookup(
	_ context.Context,
	username string,
) (uuid.UUID, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[username]
	if !ok {
		return uuid.Nil, nil, auth.ErrInvalidCredentials
	}
	return rec.userID, rec.hash, nil
}

var _ auth.CredentialStore = (*MemoryStore)(nil)
