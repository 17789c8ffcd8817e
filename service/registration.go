// Package service drives the WebAuthn ceremonies and owns the authenticated
// session lifecycle.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shelby2770/testsso/codec"
	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// Registration orchestrates the enrollment ceremony: challenge fetch,
// authenticator invocation, response encoding and server verification. It
// holds no state between calls.
type Registration struct {
	gateway       ports.Gateway
	authenticator ports.Authenticator
}

// NewRegistration creates a registration orchestrator.
func NewRegistration(gateway ports.Gateway, authenticator ports.Authenticator) *Registration {
	return &Registration{gateway: gateway, authenticator: authenticator}
}

// Register runs one full registration ceremony for the given identity.
// Failures are always returned as a classified *core.CeremonyError.
func (s *Registration) Register(ctx context.Context, username, firstName, lastName, email string) (*core.VerificationOutcome, error) {
	if username == "" {
		return nil, core.NewCeremonyError(core.KindValidation, "username is required", nil)
	}
	if s.authenticator == nil {
		return nil, core.NewCeremonyError(core.KindPlatformUnsupported, "", nil)
	}

	challenge, err := s.gateway.RegistrationChallenge(ctx, core.RegistrationRequest{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	})
	if err != nil {
		return nil, core.Classify(err)
	}

	request, err := creationRequest(challenge)
	if err != nil {
		return nil, core.Classify(err)
	}

	attestation, err := s.authenticator.MakeCredential(ctx, *request)
	if err != nil {
		return nil, core.Classify(err)
	}

	outcome, err := s.gateway.VerifyRegistration(ctx, core.RegistrationProof{
		Username:          username,
		CredentialID:      codec.Encode(attestation.CredentialID),
		ClientDataJSON:    codec.Encode(attestation.ClientDataJSON),
		AttestationObject: codec.Encode(attestation.AttestationObject),
	})
	if err != nil {
		return nil, core.Classify(err)
	}

	if !outcome.Verified {
		return nil, core.NewCeremonyError(core.KindServerRejected, outcome.Message, nil)
	}
	return outcome, nil
}

// ClearPendingChallenges discards server-side challenge state left behind by
// abandoned ceremonies so the user can retry from a clean slate. It must be
// triggered explicitly, never as an automatic recovery.
func (s *Registration) ClearPendingChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error) {
	if username == "" {
		return nil, core.NewCeremonyError(core.KindValidation, "username is required", nil)
	}
	result, err := s.gateway.ClearPendingChallenges(ctx, username)
	if err != nil {
		return nil, core.Classify(err)
	}
	return result, nil
}

// creationRequest translates a challenge packet into the binary
// credential-creation request handed to the authenticator.
func creationRequest(challenge *core.RegistrationChallenge) (*core.CreationRequest, error) {
	challengeBytes, err := codec.Decode(challenge.Challenge)
	if err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	userID, err := codec.Decode(challenge.User.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id: %w", err)
	}

	return &core.CreationRequest{
		Challenge:    challengeBytes,
		RelyingParty: challenge.RelyingParty,
		User: core.CreationUser{
			ID:          userID,
			Name:        challenge.User.Name,
			DisplayName: challenge.User.DisplayName,
		},
		Params:                 challenge.Params,
		Timeout:                ceremonyTimeout(challenge.Timeout),
		AuthenticatorSelection: challenge.AuthenticatorSelection,
		Attestation:            challenge.Attestation,
	}, nil
}

func ceremonyTimeout(millis int) time.Duration {
	if millis <= 0 {
		return core.DefaultCeremonyTimeout
	}
	return time.Duration(millis) * time.Millisecond
}
