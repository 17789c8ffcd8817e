package server

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the server stores, used by
// the dev backend and in tests.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]User       // by ID
	usernames   map[string]string     // username -> ID
	credentials map[string]Credential // by credential ID
	challenges  []PendingChallenge
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]User),
		usernames:   make(map[string]string),
		credentials: make(map[string]Credential),
	}
}

var (
	_ UserStore       = (*MemoryStore)(nil)
	_ CredentialStore = (*MemoryStore)(nil)
	_ ChallengeStore  = (*MemoryStore)(nil)
)

// CreateUser implements UserStore.
func (s *MemoryStore) CreateUser(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[user.Username]; taken {
		return ErrUserExists
	}
	s.users[user.ID] = user
	s.usernames[user.Username] = user.ID
	return nil
}

// GetUser implements UserStore.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// GetUserByUsername implements UserStore.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.users[id], nil
}

// PutCredential implements CredentialStore.
func (s *MemoryStore) PutCredential(ctx context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[credential.ID] = credential
	return nil
}

// GetCredential implements CredentialStore.
func (s *MemoryStore) GetCredential(ctx context.Context, id string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[id]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return credential, nil
}

// ListCredentials implements CredentialStore.
func (s *MemoryStore) ListCredentials(ctx context.Context, userID string) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var credentials []Credential
	for _, credential := range s.credentials {
		if credential.UserID == userID {
			credentials = append(credentials, credential)
		}
	}
	return credentials, nil
}

// PutChallenge implements ChallengeStore.
func (s *MemoryStore) PutChallenge(ctx context.Context, challenge PendingChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges = append(s.challenges, challenge)
	return nil
}

// ListChallenges implements ChallengeStore.
func (s *MemoryStore) ListChallenges(ctx context.Context, kind ChallengeKind, username string) ([]PendingChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []PendingChallenge
	for _, challenge := range s.challenges {
		if challenge.Kind == kind && challenge.Username == username {
			matched = append(matched, challenge)
		}
	}
	return matched, nil
}

// DeleteChallenges implements ChallengeStore.
func (s *MemoryStore) DeleteChallenges(ctx context.Context, kind ChallengeKind, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.challenges[:0]
	deleted := 0
	for _, challenge := range s.challenges {
		if challenge.Kind == kind && challenge.Username == username {
			deleted++
			continue
		}
		kept = append(kept, challenge)
	}
	s.challenges = kept
	return deleted, nil
}

// PruneChallenges implements ChallengeStore.
func (s *MemoryStore) PruneChallenges(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.challenges[:0]
	for _, challenge := range s.challenges {
		if challenge.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, challenge)
	}
	s.challenges = kept
	return nil
}
