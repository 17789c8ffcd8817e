package service

import (
	"context"
	"sync"

	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// fakeGateway records every call and returns canned responses.
type fakeGateway struct {
	mu sync.Mutex

	registrationChallenge *core.RegistrationChallenge
	authChallenge         *core.AuthenticationChallenge
	outcome               *core.VerificationOutcome
	verification          *core.TokenVerification
	maintenance           *core.MaintenanceResult

	challengeErr error
	verifyErr    error
	tokenErr     error

	// blockVerifyToken, when set, stalls VerifyToken until released.
	blockVerifyToken chan struct{}

	registrationRequests []core.RegistrationRequest
	registrationProofs   []core.RegistrationProof
	authUsernames        []string
	authProofs           []core.AuthenticationProof
	verifiedTokens       []string
	clearedUsernames     []string
}

func (g *fakeGateway) RegistrationChallenge(_ context.Context, req core.RegistrationRequest) (*core.RegistrationChallenge, error) {
	g.mu.Lock()
	g.registrationRequests = append(g.registrationRequests, req)
	g.mu.Unlock()
	if g.challengeErr != nil {
		return nil, g.challengeErr
	}
	return g.registrationChallenge, nil
}

func (g *fakeGateway) VerifyRegistration(_ context.Context, proof core.RegistrationProof) (*core.VerificationOutcome, error) {
	g.mu.Lock()
	g.registrationProofs = append(g.registrationProofs, proof)
	g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.outcome, nil
}

func (g *fakeGateway) AuthenticationChallenge(_ context.Context, username string) (*core.AuthenticationChallenge, error) {
	g.mu.Lock()
	g.authUsernames = append(g.authUsernames, username)
	g.mu.Unlock()
	if g.challengeErr != nil {
		return nil, g.challengeErr
	}
	return g.authChallenge, nil
}

func (g *fakeGateway) VerifyAuthentication(_ context.Context, proof core.AuthenticationProof) (*core.VerificationOutcome, error) {
	g.mu.Lock()
	g.authProofs = append(g.authProofs, proof)
	g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.outcome, nil
}

func (g *fakeGateway) VerifyToken(_ context.Context, token string) (*core.TokenVerification, error) {
	if g.blockVerifyToken != nil {
		<-g.blockVerifyToken
	}
	g.mu.Lock()
	g.verifiedTokens = append(g.verifiedTokens, token)
	g.mu.Unlock()
	if g.tokenErr != nil {
		return nil, g.tokenErr
	}
	return g.verification, nil
}

func (g *fakeGateway) Profile(_ context.Context, _ string) (*core.Profile, error) {
	return &core.Profile{}, nil
}

func (g *fakeGateway) ClearPendingChallenges(_ context.Context, username string) (*core.MaintenanceResult, error) {
	g.mu.Lock()
	g.clearedUsernames = append(g.clearedUsernames, username)
	g.mu.Unlock()
	if g.maintenance != nil {
		return g.maintenance, nil
	}
	return &core.MaintenanceResult{Success: true}, nil
}

// fakeAuthenticator returns canned binary ceremony results.
type fakeAuthenticator struct {
	attestation *core.Attestation
	assertion   *core.Assertion
	err         error

	creationRequests  []core.CreationRequest
	assertionRequests []core.AssertionRequest
}

func (a *fakeAuthenticator) MakeCredential(_ context.Context, req core.CreationRequest) (*core.Attestation, error) {
	a.creationRequests = append(a.creationRequests, req)
	if a.err != nil {
		return nil, a.err
	}
	return a.attestation, nil
}

func (a *fakeAuthenticator) GetAssertion(_ context.Context, req core.AssertionRequest) (*core.Assertion, error) {
	a.assertionRequests = append(a.assertionRequests, req)
	if a.err != nil {
		return nil, a.err
	}
	return a.assertion, nil
}

// fakeTokenStore keeps the token in memory.
type fakeTokenStore struct {
	mu    sync.Mutex
	token string
	saved int
}

func (s *fakeTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.saved++
	return nil
}

func (s *fakeTokenStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ports.ErrNoToken
	}
	return s.token, nil
}

func (s *fakeTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// fakeEvents records published session events.
type fakeEvents struct {
	mu      sync.Mutex
	logins  []string
	logouts []string
}

func (e *fakeEvents) PublishLogin(_ context.Context, userID, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logins = append(e.logins, userID)
	return nil
}

func (e *fakeEvents) PublishLogout(_ context.Context, userID, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logouts = append(e.logouts, userID)
	return nil
}
