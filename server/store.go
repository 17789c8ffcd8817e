package server

import (
	"context"
	"time"
)

// ChallengeKind separates registration challenges from login challenges.
type ChallengeKind string

const (
	ChallengeRegistration ChallengeKind = "registration"
	ChallengeLogin        ChallengeKind = "login"
)

// User is a registered account.
type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// Credential is a registered WebAuthn credential. CredentialJSON holds the
// go-webauthn credential record.
type Credential struct {
	ID             string
	UserID         string
	Name           string
	CredentialJSON []byte
	CreatedAt      time.Time
	LastUsedAt     *time.Time
}

// PendingChallenge is server-held single-use ceremony state. SessionJSON
// holds the go-webauthn session data; the identity fields carry the
// registration form data until the user record exists. A login challenge for
// the discoverable flow is stored under an empty username.
type PendingChallenge struct {
	ID          string
	Username    string
	Kind        ChallengeKind
	SessionJSON []byte
	FirstName   string
	LastName    string
	Email       string
	CreatedAt   time.Time
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

// CredentialStore persists registered credentials.
type CredentialStore interface {
	PutCredential(ctx context.Context, credential Credential) error
	GetCredential(ctx context.Context, id string) (Credential, error)
	ListCredentials(ctx context.Context, userID string) ([]Credential, error)
}

// ChallengeStore persists pending ceremony challenges.
type ChallengeStore interface {
	PutChallenge(ctx context.Context, challenge PendingChallenge) error
	ListChallenges(ctx context.Context, kind ChallengeKind, username string) ([]PendingChallenge, error)

	// DeleteChallenges removes every challenge of the kind for the username
	// and reports how many were removed.
	DeleteChallenges(ctx context.Context, kind ChallengeKind, username string) (int, error)

	// PruneChallenges discards challenges created before the cutoff.
	PruneChallenges(ctx context.Context, cutoff time.Time) error
}
