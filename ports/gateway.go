package ports

import (
	"context"

	"github.com/shelby2770/testsso/core"
)

// Gateway is the typed request layer over the SSO backend. Implementations
// normalize every accepted server response shape into the canonical core
// types and classify failures into the core error taxonomy.
type Gateway interface {
	// RegistrationChallenge requests a registration challenge scoped to the
	// given identity fields.
	RegistrationChallenge(ctx context.Context, req core.RegistrationRequest) (*core.RegistrationChallenge, error)

	// VerifyRegistration submits a registration ceremony result.
	VerifyRegistration(ctx context.Context, proof core.RegistrationProof) (*core.VerificationOutcome, error)

	// AuthenticationChallenge requests an authentication challenge. An empty
	// username requests the discoverable-credential flow and is omitted from
	// the request body.
	AuthenticationChallenge(ctx context.Context, username string) (*core.AuthenticationChallenge, error)

	// VerifyAuthentication submits an authentication ceremony result.
	VerifyAuthentication(ctx context.Context, proof core.AuthenticationProof) (*core.VerificationOutcome, error)

	// VerifyToken asks the server whether an SSO token is valid.
	VerifyToken(ctx context.Context, token string) (*core.TokenVerification, error)

	// Profile fetches the authenticated user's profile with bearer auth.
	Profile(ctx context.Context, token string) (*core.Profile, error)

	// ClearPendingChallenges removes server-side challenge state left behind
	// by abandoned ceremonies for the given username.
	ClearPendingChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error)
}
