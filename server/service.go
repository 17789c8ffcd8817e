// Package server implements the SSO backend: challenge issuance, ceremony
// verification and SSO token handling. It exists so the client half of this
// repository can be exercised end to end without an external deployment.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/shelby2770/testsso/codec"
	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

// Service handles the SSO backend business logic.
type Service struct {
	webAuthn    *webauthn.WebAuthn
	users       UserStore
	credentials CredentialStore
	challenges  ChallengeStore
	tokenizer   ports.Tokenizer
	events      ports.EventPublisher

	challengeTTL time.Duration
	clock        func() time.Time
}

// New creates the backend service. events may be nil.
func New(cfg Config, users UserStore, credentials CredentialStore, challenges ChallengeStore, tokenizer ports.Tokenizer, events ports.EventPublisher) (*Service, error) {
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
		Timeouts: webauthn.TimeoutsConfig{
			Login:        webauthn.TimeoutConfig{Enforce: true, Timeout: time.Minute},
			Registration: webauthn.TimeoutConfig{Enforce: true, Timeout: time.Minute},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}

	ttl := cfg.ChallengeTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Service{
		webAuthn:     webAuthn,
		users:        users,
		credentials:  credentials,
		challenges:   challenges,
		tokenizer:    tokenizer,
		events:       events,
		challengeTTL: ttl,
		clock:        time.Now,
	}, nil
}

// BeginRegistration issues a registration challenge scoped to the identity
// fields. Each call leaves one more pending challenge for the username; the
// verify step rejects the ceremony if more than one is outstanding.
func (s *Service) BeginRegistration(ctx context.Context, req core.RegistrationRequest) (*core.RegistrationChallenge, error) {
	if req.Username == "" {
		return nil, ErrUsernameRequired
	}
	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, ErrUserExists
	}

	_ = s.challenges.PruneChallenges(ctx, s.clock().Add(-s.challengeTTL))

	userID := uuid.New().String()
	displayName := req.FirstName
	if displayName == "" {
		displayName = req.Username
	}

	user := &passkeyUser{
		id:          []byte(userID),
		name:        req.Username,
		displayName: displayName,
	}

	creation, session, err := s.webAuthn.BeginRegistration(user,
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.CrossPlatform,
			ResidentKey:             protocol.ResidentKeyRequirementPreferred,
			UserVerification:        protocol.VerificationPreferred,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
	)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}

	if err := s.storeChallenge(ctx, ChallengeRegistration, req, session); err != nil {
		return nil, err
	}

	options := creation.Response
	challenge := &core.RegistrationChallenge{
		Challenge: codec.Encode(options.Challenge),
		RelyingParty: core.RelyingParty{
			Name: options.RelyingParty.Name,
			ID:   options.RelyingParty.ID,
		},
		User: core.UserIdentity{
			ID:          codec.Encode([]byte(userID)),
			Name:        req.Username,
			DisplayName: displayName,
		},
		Params:      credentialParams(options.Parameters),
		Timeout:     options.Timeout,
		Attestation: string(options.Attestation),
		AuthenticatorSelection: &core.AuthenticatorSelection{
			AuthenticatorAttachment: string(options.AuthenticatorSelection.AuthenticatorAttachment),
			ResidentKey:             string(options.AuthenticatorSelection.ResidentKey),
			UserVerification:        string(options.AuthenticatorSelection.UserVerification),
		},
	}
	return challenge, nil
}

// FinishRegistration verifies a registration ceremony result, creates the
// account and its first credential, and issues an SSO token.
func (s *Service) FinishRegistration(ctx context.Context, proof core.RegistrationProof) (*core.VerificationOutcome, error) {
	if proof.Username == "" {
		return nil, ErrUsernameRequired
	}

	pending, err := s.outstandingChallenge(ctx, ChallengeRegistration, proof.Username)
	if err != nil {
		return nil, err
	}

	var session webauthn.SessionData
	if err := json.Unmarshal(pending.SessionJSON, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	payload, err := creationResponseJSON(proof)
	if err != nil {
		return nil, err
	}
	parsed, err := protocol.ParseCredentialCreationResponseBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	displayName := pending.FirstName
	if displayName == "" {
		displayName = proof.Username
	}
	user := &passkeyUser{
		id:          session.UserID,
		name:        proof.Username,
		displayName: displayName,
	}

	credential, err := s.webAuthn.CreateCredential(user, session, parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	account := User{
		ID:        string(session.UserID),
		Username:  proof.Username,
		Email:     pending.Email,
		FirstName: pending.FirstName,
		LastName:  pending.LastName,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.users.CreateUser(ctx, account); err != nil {
		return nil, err
	}
	if err := s.saveCredential(ctx, account.ID, credential, false); err != nil {
		return nil, err
	}
	_, _ = s.challenges.DeleteChallenges(ctx, ChallengeRegistration, proof.Username)

	return s.issueOutcome(ctx, account)
}

// BeginLogin issues an authentication challenge. An empty username requests
// the discoverable-credential flow.
func (s *Service) BeginLogin(ctx context.Context, username string) (*core.AuthenticationChallenge, error) {
	_ = s.challenges.PruneChallenges(ctx, s.clock().Add(-s.challengeTTL))

	var (
		assertion *protocol.CredentialAssertion
		session   *webauthn.SessionData
		err       error
	)

	if username == "" {
		assertion, session, err = s.webAuthn.BeginDiscoverableLogin()
	} else {
		user, loadErr := s.loadPasskeyUser(ctx, username)
		if loadErr != nil {
			return nil, loadErr
		}
		assertion, session, err = s.webAuthn.BeginLogin(user)
	}
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}

	if err := s.storeChallenge(ctx, ChallengeLogin, core.RegistrationRequest{Username: username}, session); err != nil {
		return nil, err
	}

	options := assertion.Response
	allowed := make([]core.AllowedCredential, 0, len(options.AllowedCredentials))
	for _, descriptor := range options.AllowedCredentials {
		transports := make([]string, 0, len(descriptor.Transport))
		for _, transport := range descriptor.Transport {
			transports = append(transports, string(transport))
		}
		allowed = append(allowed, core.AllowedCredential{
			ID:         codec.Encode(descriptor.CredentialID),
			Type:       string(descriptor.Type),
			Transports: transports,
		})
	}

	return &core.AuthenticationChallenge{
		Challenge:        codec.Encode(options.Challenge),
		RelyingPartyID:   options.RelyingPartyID,
		Timeout:          options.Timeout,
		UserVerification: string(options.UserVerification),
		AllowCredentials: allowed,
	}, nil
}

// FinishLogin verifies an authentication ceremony result and issues an SSO
// token.
func (s *Service) FinishLogin(ctx context.Context, proof core.AuthenticationProof) (*core.VerificationOutcome, error) {
	record, err := s.credentials.GetCredential(ctx, proof.CredentialID)
	if err != nil {
		return nil, err
	}
	account, err := s.users.GetUser(ctx, record.UserID)
	if err != nil {
		return nil, err
	}

	// A user-scoped challenge wins; fall back to the discoverable pool.
	pending, err := s.outstandingChallenge(ctx, ChallengeLogin, account.Username)
	challengeUsername := account.Username
	if err == ErrChallengeNotFound {
		pending, err = s.outstandingChallenge(ctx, ChallengeLogin, "")
		challengeUsername = ""
	}
	if err != nil {
		return nil, err
	}

	var session webauthn.SessionData
	if err := json.Unmarshal(pending.SessionJSON, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	payload, err := assertionResponseJSON(proof)
	if err != nil {
		return nil, err
	}
	parsed, err := protocol.ParseCredentialRequestResponseBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	var credential *webauthn.Credential
	if len(session.UserID) == 0 {
		_, credential, err = s.webAuthn.ValidatePasskeyLogin(s.discoverableUserHandler(ctx), session, parsed)
	} else {
		var user *passkeyUser
		user, err = s.loadPasskeyUser(ctx, account.Username)
		if err != nil {
			return nil, err
		}
		credential, err = s.webAuthn.ValidateLogin(user, session, parsed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if err := s.saveCredential(ctx, account.ID, credential, true); err != nil {
		return nil, err
	}
	_, _ = s.challenges.DeleteChallenges(ctx, ChallengeLogin, challengeUsername)

	return s.issueOutcome(ctx, account)
}

// VerifyToken reports whether an SSO token is valid. A bad token is a valid
// answer, not an error.
func (s *Service) VerifyToken(ctx context.Context, token string) *core.TokenVerification {
	user, err := s.tokenizer.Verify(token)
	if err != nil {
		return &core.TokenVerification{Valid: false}
	}
	return &core.TokenVerification{Valid: true, User: user}
}

// Profile returns the account profile with its credential summaries.
func (s *Service) Profile(ctx context.Context, userID string) (*core.Profile, error) {
	account, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.credentials.ListCredentials(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]core.CredentialSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, core.CredentialSummary{
			ID:        record.ID,
			Name:      record.Name,
			CreatedAt: record.CreatedAt,
			LastUsed:  record.LastUsedAt,
		})
	}

	return &core.Profile{
		ID:          account.ID,
		Username:    account.Username,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Credentials: summaries,
	}, nil
}

// ClearChallenges removes every pending challenge for the username, both
// registration and login, and reports the count. Explicitly user-triggered.
func (s *Service) ClearChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	total := 0
	for _, kind := range []ChallengeKind{ChallengeRegistration, ChallengeLogin} {
		deleted, err := s.challenges.DeleteChallenges(ctx, kind, username)
		if err != nil {
			return nil, err
		}
		total += deleted
	}

	return &core.MaintenanceResult{
		Success:      true,
		DeletedCount: total,
		Message:      fmt.Sprintf("cleared %d pending challenges for %s", total, username),
	}, nil
}

// outstandingChallenge returns the single live challenge for the identity.
// Zero live challenges is a not-found; more than one is the stale-challenge
// conflict with its dedicated recovery path.
func (s *Service) outstandingChallenge(ctx context.Context, kind ChallengeKind, username string) (*PendingChallenge, error) {
	all, err := s.challenges.ListChallenges(ctx, kind, username)
	if err != nil {
		return nil, err
	}

	cutoff := s.clock().Add(-s.challengeTTL)
	live := make([]PendingChallenge, 0, len(all))
	for _, challenge := range all {
		if challenge.CreatedAt.Before(cutoff) {
			continue
		}
		live = append(live, challenge)
	}

	switch len(live) {
	case 0:
		return nil, ErrChallengeNotFound
	case 1:
		return &live[0], nil
	default:
		return nil, ErrStaleChallenge
	}
}

func (s *Service) storeChallenge(ctx context.Context, kind ChallengeKind, req core.RegistrationRequest, session *webauthn.SessionData) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.challenges.PutChallenge(ctx, PendingChallenge{
		ID:          uuid.New().String(),
		Username:    req.Username,
		Kind:        kind,
		SessionJSON: sessionJSON,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		CreatedAt:   s.clock().UTC(),
	})
}

func (s *Service) loadPasskeyUser(ctx context.Context, username string) (*passkeyUser, error) {
	account, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	records, err := s.credentials.ListCredentials(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	credentials, err := decodeStoredCredentials(records)
	if err != nil {
		return nil, err
	}
	if len(credentials) == 0 {
		return nil, ErrCredentialNotFound
	}

	displayName := account.FirstName
	if displayName == "" {
		displayName = account.Username
	}
	return &passkeyUser{
		id:          []byte(account.ID),
		name:        account.Username,
		displayName: displayName,
		credentials: credentials,
	}, nil
}

func (s *Service) discoverableUserHandler(ctx context.Context) webauthn.DiscoverableUserHandler {
	return func(_, userHandle []byte) (webauthn.User, error) {
		account, err := s.users.GetUser(ctx, string(userHandle))
		if err != nil {
			return nil, err
		}
		return s.loadPasskeyUser(ctx, account.Username)
	}
}

func (s *Service) saveCredential(ctx context.Context, userID string, credential *webauthn.Credential, used bool) error {
	credentialJSON, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	id := codec.Encode(credential.ID)
	now := s.clock().UTC()

	record := Credential{
		ID:             id,
		UserID:         userID,
		Name:           "Security Key",
		CredentialJSON: credentialJSON,
		CreatedAt:      now,
	}
	if existing, err := s.credentials.GetCredential(ctx, id); err == nil {
		record.CreatedAt = existing.CreatedAt
		record.Name = existing.Name
	}
	if used {
		record.LastUsedAt = &now
	}
	return s.credentials.PutCredential(ctx, record)
}

func (s *Service) issueOutcome(ctx context.Context, account User) (*core.VerificationOutcome, error) {
	user := core.User{ID: account.ID, Username: account.Username, Email: account.Email}

	token, err := s.tokenizer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if s.events != nil {
		// Best effort; the ceremony already succeeded.
		_ = s.events.PublishLogin(ctx, user.ID, user.Username)
	}

	return &core.VerificationOutcome{Verified: true, Token: token, User: &user}, nil
}

func credentialParams(parameters []protocol.CredentialParameter) []core.CredentialParam {
	params := make([]core.CredentialParam, 0, len(parameters))
	for _, parameter := range parameters {
		params = append(params, core.CredentialParam{
			Type:      string(parameter.Type),
			Algorithm: int(parameter.Algorithm),
		})
	}
	return params
}

// creationResponseJSON rebuilds the standard credential-creation response
// shape from the flat wire fields so it can be parsed by go-webauthn.
func creationResponseJSON(proof core.RegistrationProof) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"id":    proof.CredentialID,
		"rawId": proof.CredentialID,
		"type":  "public-key",
		"response": map[string]any{
			"attestationObject": proof.AttestationObject,
			"clientDataJSON":    proof.ClientDataJSON,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode creation response: %w", err)
	}
	return payload, nil
}

// assertionResponseJSON does the same for the authentication response.
func assertionResponseJSON(proof core.AuthenticationProof) ([]byte, error) {
	response := map[string]any{
		"authenticatorData": proof.AuthenticatorData,
		"clientDataJSON":    proof.ClientDataJSON,
		"signature":         proof.Signature,
	}
	if proof.UserHandle != "" {
		response["userHandle"] = proof.UserHandle
	}
	payload, err := json.Marshal(map[string]any{
		"id":       proof.CredentialID,
		"rawId":    proof.CredentialID,
		"type":     "public-key",
		"response": response,
	})
	if err != nil {
		return nil, fmt.Errorf("encode assertion response: %w", err)
	}
	return payload, nil
}
