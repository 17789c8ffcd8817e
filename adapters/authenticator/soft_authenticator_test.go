package authenticator

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelby2770/testsso/codec"
	"github.com/shelby2770/testsso/core"
)

func creationFixture() core.CreationRequest {
	return core.CreationRequest{
		Challenge:    []byte{0, 0, 0},
		RelyingParty: core.RelyingParty{Name: "Test SSO", ID: "localhost"},
		User:         core.CreationUser{ID: []byte{1}, Name: "bob", DisplayName: "Bob"},
		Params:       []core.CredentialParam{{Type: "public-key", Algorithm: -7}},
	}
}

func TestMakeCredentialProducesVerifiableAttestation(t *testing.T) {
	auth := New("http://localhost:5173")

	attestation, err := auth.MakeCredential(context.Background(), creationFixture())
	require.NoError(t, err)
	require.Len(t, attestation.CredentialID, 16)

	var clientData struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
		Origin    string `json:"origin"`
	}
	require.NoError(t, json.Unmarshal(attestation.ClientDataJSON, &clientData))
	assert.Equal(t, "webauthn.create", clientData.Type)
	assert.Equal(t, "AAAA", clientData.Challenge)
	assert.Equal(t, "http://localhost:5173", clientData.Origin)

	var attObj struct {
		AuthData []byte         `cbor:"authData"`
		Format   string         `cbor:"fmt"`
		AttStmt  map[string]any `cbor:"attStmt"`
	}
	require.NoError(t, cbor.Unmarshal(attestation.AttestationObject, &attObj))
	assert.Equal(t, "none", attObj.Format)
	assert.Empty(t, attObj.AttStmt)

	rpHash := sha256.Sum256([]byte("localhost"))
	require.GreaterOrEqual(t, len(attObj.AuthData), 55)
	assert.Equal(t, rpHash[:], attObj.AuthData[:32])
	assert.EqualValues(t, flagUserPresent|flagUserVerified|flagAttestedCreds, attObj.AuthData[32])

	credIDLen := binary.BigEndian.Uint16(attObj.AuthData[53:55])
	assert.EqualValues(t, 16, credIDLen)
	assert.Equal(t, attestation.CredentialID, attObj.AuthData[55:55+credIDLen])
}

func TestGetAssertionSignatureVerifies(t *testing.T) {
	auth := New("http://localhost:5173")
	ctx := context.Background()

	attestation, err := auth.MakeCredential(ctx, creationFixture())
	require.NoError(t, err)

	// Pull the public key back out of the attestation object.
	var attObj struct {
		AuthData []byte `cbor:"authData"`
	}
	require.NoError(t, cbor.Unmarshal(attestation.AttestationObject, &attObj))
	var coseKey struct {
		X []byte `cbor:"-2,keyasint"`
		Y []byte `cbor:"-3,keyasint"`
	}
	require.NoError(t, cbor.Unmarshal(attObj.AuthData[55+16:], &coseKey))
	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(coseKey.X),
		Y:     new(big.Int).SetBytes(coseKey.Y),
	}

	assertion, err := auth.GetAssertion(ctx, core.AssertionRequest{
		Challenge:      []byte{9, 9},
		RelyingPartyID: "localhost",
		AllowCredentials: []core.AllowedCredentialRef{
			{ID: attestation.CredentialID, Type: "public-key"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, attestation.CredentialID, assertion.CredentialID)
	assert.Empty(t, assertion.UserHandle, "allow-list assertions carry no user handle")

	var clientData struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	require.NoError(t, json.Unmarshal(assertion.ClientDataJSON, &clientData))
	assert.Equal(t, "webauthn.get", clientData.Type)
	assert.Equal(t, codec.Encode([]byte{9, 9}), clientData.Challenge)

	clientDataHash := sha256.Sum256(assertion.ClientDataJSON)
	digest := sha256.Sum256(append(append([]byte{}, assertion.AuthenticatorData...), clientDataHash[:]...))
	assert.True(t, ecdsa.VerifyASN1(pub, digest[:], assertion.Signature))

	// Sign count advances per assertion.
	assert.EqualValues(t, 1, binary.BigEndian.Uint32(assertion.AuthenticatorData[33:37]))
}

func TestGetAssertionDiscoverableReturnsUserHandle(t *testing.T) {
	auth := New("http://localhost:5173")
	ctx := context.Background()

	_, err := auth.MakeCredential(ctx, creationFixture())
	require.NoError(t, err)

	assertion, err := auth.GetAssertion(ctx, core.AssertionRequest{
		Challenge:      []byte{1},
		RelyingPartyID: "localhost",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, assertion.UserHandle)
}

func TestMakeCredentialRejectsDuplicate(t *testing.T) {
	auth := New("http://localhost:5173")
	ctx := context.Background()

	_, err := auth.MakeCredential(ctx, creationFixture())
	require.NoError(t, err)

	_, err = auth.MakeCredential(ctx, creationFixture())
	assert.ErrorIs(t, err, core.ErrCeremonyInvalid)
}

func TestMakeCredentialRequiresES256(t *testing.T) {
	auth := New("http://localhost:5173")
	req := creationFixture()
	req.Params = []core.CredentialParam{{Type: "public-key", Algorithm: -257}}

	_, err := auth.MakeCredential(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrCeremonyUnsupported)
}

func TestInsecureOriginRejected(t *testing.T) {
	auth := New("http://example.com")

	_, err := auth.MakeCredential(context.Background(), creationFixture())
	assert.ErrorIs(t, err, core.ErrCeremonySecurity)
}

func TestCancelledContextRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("http://localhost:5173").MakeCredential(ctx, creationFixture())
	assert.ErrorIs(t, err, core.ErrCeremonyCancelled)
}

func TestGetAssertionUnknownCredential(t *testing.T) {
	auth := New("http://localhost:5173")

	_, err := auth.GetAssertion(context.Background(), core.AssertionRequest{
		Challenge:      []byte{1},
		RelyingPartyID: "localhost",
		AllowCredentials: []core.AllowedCredentialRef{
			{ID: []byte{9, 9, 9}, Type: "public-key"},
		},
	})
	assert.ErrorIs(t, err, core.ErrCeremonyInvalid)
}
