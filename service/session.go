package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// SessionManager owns the authenticated-session state machine. It is the
// single point of shared mutable session state; its transitions are
// serialized internally, and a verification superseded by a newer login never
// overwrites the newer result (last write wins).
type SessionManager struct {
	gateway ports.Gateway
	store   ports.TokenStore
	events  ports.EventPublisher

	mu         sync.Mutex
	generation uint64
	inFlight   int
	user       *core.User
	token      string
}

// Snapshot is the read model exposed to the rest of the application.
// IsAuthenticated holds iff User is present.
type Snapshot struct {
	User            *core.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
}

// NewSessionManager creates a session manager. events may be nil.
func NewSessionManager(gateway ports.Gateway, store ports.TokenStore, events ports.EventPublisher) *SessionManager {
	return &SessionManager{gateway: gateway, store: store, events: events}
}

// Start consumes the persisted token, if any, and verifies it against the
// backend. With no persisted token the session starts anonymous.
func (m *SessionManager) Start(ctx context.Context) error {
	token, err := m.store.Load(ctx)
	if errors.Is(err, ports.ErrNoToken) {
		return nil
	}
	if err != nil {
		return err
	}
	m.verify(ctx, token, m.nextGeneration())
	return nil
}

// Login persists the token and then verifies it. The round trip doubles as
// trust validation: a token never authenticates a user without server
// confirmation. A verification failure downgrades to anonymous rather than
// propagating.
func (m *SessionManager) Login(ctx context.Context, token string) error {
	if err := m.store.Save(ctx, token); err != nil {
		return err
	}
	m.verify(ctx, token, m.nextGeneration())
	return nil
}

// Logout clears the in-memory session and removes the persisted token. It is
// idempotent and supersedes any in-flight verification.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	user := m.user
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	if user != nil && m.events != nil {
		// Best effort; the session is already torn down.
		_ = m.events.PublishLogout(ctx, user.ID, user.Username)
	}
	return nil
}

// Snapshot returns the current read model.
func (m *SessionManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		User:            m.user,
		Token:           m.token,
		IsAuthenticated: m.user != nil,
		IsLoading:       m.inFlight > 0,
	}
}

func (m *SessionManager) nextGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.inFlight++
	return m.generation
}

// verify runs the token round trip and applies the result unless a newer
// login or logout has superseded this call in the meantime.
func (m *SessionManager) verify(ctx context.Context, token string, generation uint64) {
	verification, err := m.gateway.VerifyToken(ctx, token)

	m.mu.Lock()
	m.inFlight--
	if generation != m.generation {
		m.mu.Unlock()
		return
	}

	if err != nil || !verification.Valid || verification.User == nil {
		m.user = nil
		m.token = ""
		m.mu.Unlock()
		_ = m.store.Clear(ctx)
		return
	}

	m.user = verification.User
	m.token = token
	user := *verification.User
	m.mu.Unlock()

	if m.events != nil {
		_ = m.events.PublishLogin(ctx, user.ID, user.Username)
	}
}
