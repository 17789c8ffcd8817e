package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelby2770/testsso/adapters/authenticator"
	"github.com/shelby2770/testsso/adapters/tokenizer"
	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
	"github.com/shelby2770/testsso/service"
)

const testOrigin = "http://localhost:5173"

func testConfig() Config {
	return Config{
		RPID:         "localhost",
		RPName:       "Test SSO",
		RPOrigins:    []string{testOrigin},
		ChallengeTTL: 5 * time.Minute,
	}
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	store := NewMemoryStore()
	svc, err := New(testConfig(), store, store, store, tokenizer.NewJWTTokenizer(key), nil)
	require.NoError(t, err)
	return svc, store
}

// localGateway wires the client orchestrators straight into the service so a
// full ceremony runs in process.
type localGateway struct {
	svc *Service
}

var _ ports.Gateway = (*localGateway)(nil)

func (g *localGateway) RegistrationChallenge(ctx context.Context, req core.RegistrationRequest) (*core.RegistrationChallenge, error) {
	return g.svc.BeginRegistration(ctx, req)
}

func (g *localGateway) VerifyRegistration(ctx context.Context, proof core.RegistrationProof) (*core.VerificationOutcome, error) {
	return g.svc.FinishRegistration(ctx, proof)
}

func (g *localGateway) AuthenticationChallenge(ctx context.Context, username string) (*core.AuthenticationChallenge, error) {
	return g.svc.BeginLogin(ctx, username)
}

func (g *localGateway) VerifyAuthentication(ctx context.Context, proof core.AuthenticationProof) (*core.VerificationOutcome, error) {
	return g.svc.FinishLogin(ctx, proof)
}

func (g *localGateway) VerifyToken(ctx context.Context, token string) (*core.TokenVerification, error) {
	return g.svc.VerifyToken(ctx, token), nil
}

func (g *localGateway) Profile(ctx context.Context, token string) (*core.Profile, error) {
	user, err := g.svc.tokenizer.Verify(token)
	if err != nil {
		return nil, err
	}
	return g.svc.Profile(ctx, user.ID)
}

func (g *localGateway) ClearPendingChallenges(ctx context.Context, username string) (*core.MaintenanceResult, error) {
	return g.svc.ClearChallenges(ctx, username)
}

func register(t *testing.T, svc *Service, auth ports.Authenticator, username string) *core.VerificationOutcome {
	t.Helper()
	outcome, err := service.NewRegistration(&localGateway{svc}, auth).Register(context.Background(), username, "Bob", "B", username+"@example.com")
	require.NoError(t, err)
	return outcome
}

func TestRegistrationCeremonyEndToEnd(t *testing.T) {
	svc, store := newTestService(t)
	auth := authenticator.New(testOrigin)

	outcome := register(t, svc, auth, "bob")
	assert.True(t, outcome.Verified)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "bob", outcome.User.Username)

	verification := svc.VerifyToken(context.Background(), outcome.Token)
	assert.True(t, verification.Valid)
	assert.Equal(t, outcome.User.ID, verification.User.ID)

	account, err := store.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", account.Email)

	credentials, err := store.ListCredentials(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.Equal(t, "Security Key", credentials[0].Name)
	assert.Nil(t, credentials[0].LastUsedAt)

	// The single-use challenge is gone.
	_, err = svc.outstandingChallenge(context.Background(), ChallengeRegistration, "bob")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestLoginCeremonyEndToEnd(t *testing.T) {
	svc, store := newTestService(t)
	auth := authenticator.New(testOrigin)
	registered := register(t, svc, auth, "bob")

	outcome, err := service.NewAuthentication(&localGateway{svc}, auth).Authenticate(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.NotEmpty(t, outcome.Token)
	assert.Equal(t, registered.User.ID, outcome.User.ID)

	credentials, err := store.ListCredentials(context.Background(), registered.User.ID)
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.NotNil(t, credentials[0].LastUsedAt, "login stamps last use")
}

func TestDiscoverableLoginCeremony(t *testing.T) {
	svc, _ := newTestService(t)
	auth := authenticator.New(testOrigin)
	registered := register(t, svc, auth, "bob")

	// An empty username runs the passkey flow end to end.
	outcome, err := service.NewAuthentication(&localGateway{svc}, auth).Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.Equal(t, registered.User.ID, outcome.User.ID)
}

func TestBeginRegistrationRejectsDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, authenticator.New(testOrigin), "bob")

	_, err := svc.BeginRegistration(context.Background(), core.RegistrationRequest{Username: "bob"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestBeginRegistrationRequiresUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BeginRegistration(context.Background(), core.RegistrationRequest{})
	assert.ErrorIs(t, err, ErrUsernameRequired)
}

func TestBeginLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.BeginLogin(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStaleChallengeConflictAndRecovery(t *testing.T) {
	svc, _ := newTestService(t)
	auth := authenticator.New(testOrigin)
	register(t, svc, auth, "bob")
	ctx := context.Background()

	// Two abandoned challenge fetches leave two outstanding attempts.
	_, err := svc.BeginLogin(ctx, "bob")
	require.NoError(t, err)
	authentication := service.NewAuthentication(&localGateway{svc}, auth)
	_, err = authentication.Authenticate(ctx, "bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleChallenge)

	// Explicit clear drains both pools, then a retry succeeds.
	result, err := authentication.ClearPendingChallenges(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.DeletedCount)

	outcome, err := authentication.Authenticate(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
}

func TestChallengeExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	auth := authenticator.New(testOrigin)
	register(t, svc, auth, "bob")
	ctx := context.Background()

	_, err := svc.BeginLogin(ctx, "bob")
	require.NoError(t, err)

	// Shift the clock past the TTL; the pending challenge no longer counts.
	svc.clock = func() time.Time { return time.Now().Add(10 * time.Minute) }
	_, err = svc.outstandingChallenge(ctx, ChallengeLogin, "bob")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestVerifyTokenInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	verification := svc.VerifyToken(context.Background(), "garbage")
	assert.False(t, verification.Valid)
	assert.Nil(t, verification.User)
}

func TestProfileListsCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	outcome := register(t, svc, authenticator.New(testOrigin), "bob")

	profile, err := svc.Profile(context.Background(), outcome.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	assert.Equal(t, "Bob", profile.FirstName)
	require.Len(t, profile.Credentials, 1)
}

func TestFinishRegistrationWithoutChallenge(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FinishRegistration(context.Background(), core.RegistrationProof{
		Username:     "bob",
		CredentialID: "AQID",
	})
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
