package ports

import (
	"context"

	"github.com/shelby2770/testsso/core"
)

// Authenticator is the platform credential API boundary. One invocation is
// active at a time per orchestrator; the call blocks until the user completes
// or cancels the physical ceremony, the timeout elapses, or ctx is done.
// Failures are reported with the core authenticator signals
// (core.ErrCeremonyCancelled and friends).
type Authenticator interface {
	// MakeCredential runs the credential-creation ceremony.
	MakeCredential(ctx context.Context, req core.CreationRequest) (*core.Attestation, error)

	// GetAssertion runs the get-assertion ceremony.
	GetAssertion(ctx context.Context, req core.AssertionRequest) (*core.Assertion, error)
}
