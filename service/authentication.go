package service

import (
	"context"
	"fmt"

	"github.com/shelby2770/testsso/codec"
	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// Authentication orchestrates the login ceremony. An empty username selects
// the discoverable-credential (passkey) flow.
type Authentication struct {
	gateway       ports.Gateway
	authenticator ports.Authenticator
}

// NewAuthentication creates an authentication orchestrator.
func NewAuthentication(gateway ports.Gateway, authenticator ports.Authenticator) *Authentication {
	return &Authentication{gateway: gateway, authenticator: authenticator}
}

// Authenticate runs one full login ceremony. Failures are always returned as
// a classified *core.CeremonyError.
func (s *Authentication) Authenticate(ctx context.Context, username string) (*core.VerificationOutcome, error) {
	if s.authenticator == nil {
		return nil, core.NewCeremonyError(core.KindPlatformUnsupported, "", nil)
	}

	challenge, err := s.gateway.AuthenticationChallenge(ctx, username)
	if err != nil {
		return nil, core.Classify(err)
	}

	request, err := assertionRequest(challenge)
	if err != nil {
		return nil, core.Classify(err)
	}

	assertion, err := s.authenticator.GetAssertion(ctx, *request)
	if err != nil {
		return nil, core.Classify(err)
	}

	proof := core.AuthenticationProof{
		CredentialID:      codec.Encode(assertion.CredentialID),
		AuthenticatorData: codec.Encode(assertion.AuthenticatorData),
		ClientDataJSON:    codec.Encode(assertion.ClientDataJSON),
		Signature:         codec.Encode(assertion.Signature),
	}
	if len(assertion.UserHandle) > 0 {
		proof.UserHandle = codec.Encode(assertion.UserHandle)
	}

	outcome, err := s.gateway.VerifyAuthentication(ctx, proof)
	if err != nil {
		return nil, core.Classify(err)
	}

	if !outcome.Verified {
		return nil, core.NewCeremonyError(core.KindServerRejected, outcome.Message, nil)
	}
	return outcome, nil
}

// ClearPendingChallenges discards server-side challenge state left behind by
// abandoned ceremonies. Explicit user action only.
func (s *Authentication) ClearPendingChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error) {
	result, err := s.gateway.ClearPendingChallenges(ctx, username)
	if err != nil {
		return nil, core.Classify(err)
	}
	return result, nil
}

// assertionRequest translates a challenge packet into the binary
// credential-request handed to the authenticator, decoding the allow list
// entry by entry.
func assertionRequest(challenge *core.AuthenticationChallenge) (*core.AssertionRequest, error) {
	challengeBytes, err := codec.Decode(challenge.Challenge)
	if err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}

	allowed := make([]core.AllowedCredentialRef, 0, len(challenge.AllowCredentials))
	for _, cred := range challenge.AllowCredentials {
		id, err := codec.Decode(cred.ID)
		if err != nil {
			return nil, fmt.Errorf("decode allowed credential id: %w", err)
		}
		allowed = append(allowed, core.AllowedCredentialRef{
			ID:         id,
			Type:       cred.Type,
			Transports: cred.Transports,
		})
	}

	return &core.AssertionRequest{
		Challenge:        challengeBytes,
		RelyingPartyID:   challenge.RelyingPartyID,
		Timeout:          ceremonyTimeout(challenge.Timeout),
		UserVerification: challenge.UserVerification,
		AllowCredentials: allowed,
	}, nil
}
