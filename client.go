// Package testsso is the client SDK for the Test SSO service. It bundles the
// ceremony orchestrators and the session manager behind one entry point;
// applications that need finer control can assemble the service and adapter
// packages directly.
package testsso

import (
	"context"

	"github.com/shelby2770/testsso/adapters/gateway"
	"github.com/shelby2770/testsso/adapters/store"
	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
	"github.com/shelby2770/testsso/service"
)

// Options configures a Client. Zero-value fields fall back to defaults; a nil
// Authenticator means the platform has no credential API, and ceremonies will
// fail with a platform-unsupported error.
type Options struct {
	Gateway       ports.Gateway
	Authenticator ports.Authenticator
	TokenStore    ports.TokenStore
	Events        ports.EventPublisher
}

// Client is the assembled SDK surface.
type Client struct {
	registration   *service.Registration
	authentication *service.Authentication
	session        *service.SessionManager
}

// New assembles a client. With no gateway configured the backend endpoint is
// read from the environment.
func New(opts Options) *Client {
	if opts.Gateway == nil {
		opts.Gateway = gateway.New(gateway.LoadConfigFromEnv())
	}
	if opts.TokenStore == nil {
		opts.TokenStore = store.NewMemoryStore()
	}
	return &Client{
		registration:   service.NewRegistration(opts.Gateway, opts.Authenticator),
		authentication: service.NewAuthentication(opts.Gateway, opts.Authenticator),
		session:        service.NewSessionManager(opts.Gateway, opts.TokenStore, opts.Events),
	}
}

// Start restores a previously persisted session, if any.
func (c *Client) Start(ctx context.Context) error {
	return c.session.Start(ctx)
}

// Register runs the registration ceremony and establishes the session from
// the issued token.
func (c *Client) Register(ctx context.Context, username, firstName, lastName, email string) (*core.VerificationOutcome, error) {
	outcome, err := c.registration.Register(ctx, username, firstName, lastName, email)
	if err != nil {
		return nil, err
	}
	if err := c.session.Login(ctx, outcome.Token); err != nil {
		return nil, err
	}
	return outcome, nil
}

// Login runs the authentication ceremony and establishes the session from the
// issued token. An empty username uses the discoverable-credential flow.
func (c *Client) Login(ctx context.Context, username string) (*core.VerificationOutcome, error) {
	outcome, err := c.authentication.Authenticate(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := c.session.Login(ctx, outcome.Token); err != nil {
		return nil, err
	}
	return outcome, nil
}

// Logout tears the session down.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// Session returns the current session read model.
func (c *Client) Session() service.Snapshot {
	return c.session.Snapshot()
}

// ClearPendingChallenges discards the server-side challenge state for the
// username. Explicit recovery action, never automatic.
func (c *Client) ClearPendingChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error) {
	return c.registration.ClearPendingChallenges(ctx, username)
}
