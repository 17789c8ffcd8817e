package ports

import (
	"context"
	"errors"
)

// ErrNoToken is returned by Load when no token is persisted.
var ErrNoToken = errors.New("no persisted token")

// TokenStore persists the single SSO token under a well-known key. Only the
// token is ever persisted; user identity is re-derived by verification.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
