// Package authenticator provides a software authenticator that stands in for
// the platform credential API. It produces ES256 credentials with
// "none"-format attestation, good enough for dev backends and tests; it is
// not a hardware-backed key store.
package authenticator

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/shelby2770/testsso/codec"
	"github.com/shelby2770/testsso/core"
	"github.com/shelby2770/testsso/ports"
)

const (
	algES256 = -7

	flagUserPresent   = 0x01
	flagUserVerified  = 0x04
	flagAttestedCreds = 0x40
)

// SoftAuthenticator implements the Authenticator interface in software.
type SoftAuthenticator struct {
	origin string

	mu    sync.Mutex
	creds []*softCredential
}

type softCredential struct {
	id         []byte
	key        *ecdsa.PrivateKey
	rpID       string
	userHandle []byte
	signCount  uint32
}

// New creates a software authenticator bound to the given client origin.
func New(origin string) *SoftAuthenticator {
	return &SoftAuthenticator{origin: origin}
}

var _ ports.Authenticator = (*SoftAuthenticator)(nil)

// MakeCredential implements ports.Authenticator.
func (a *SoftAuthenticator) MakeCredential(ctx context.Context, req core.CreationRequest) (*core.Attestation, error) {
	if err := a.gate(ctx); err != nil {
		return nil, err
	}
	if !supportsES256(req.Params) {
		return nil, fmt.Errorf("%w: no ES256 in accepted algorithms", core.ErrCeremonyUnsupported)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, cred := range a.creds {
		if cred.rpID == req.RelyingParty.ID && bytes.Equal(cred.userHandle, req.User.ID) {
			return nil, fmt.Errorf("%w: credential already registered for this user", core.ErrCeremonyInvalid)
		}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	credID := make([]byte, 16)
	if _, err := rand.Read(credID); err != nil {
		return nil, fmt.Errorf("generate credential id: %w", err)
	}

	clientData, err := clientDataJSON("webauthn.create", req.Challenge, a.origin)
	if err != nil {
		return nil, err
	}

	coseKey, err := encodeCOSEKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	authData := attestedAuthData(req.RelyingParty.ID, credID, coseKey)

	attObj, err := cbor.Marshal(attestationObject{
		AuthData:     authData,
		Format:       "none",
		AttStatement: map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("encode attestation object: %w", err)
	}

	userHandle := make([]byte, len(req.User.ID))
	copy(userHandle, req.User.ID)
	a.creds = append(a.creds, &softCredential{
		id:         credID,
		key:        key,
		rpID:       req.RelyingParty.ID,
		userHandle: userHandle,
	})

	return &core.Attestation{
		CredentialID:      credID,
		ClientDataJSON:    clientData,
		AttestationObject: attObj,
	}, nil
}

// GetAssertion implements ports.Authenticator. An empty allow list selects a
// discoverable credential for the relying party; the user handle is returned
// only on that path.
func (a *SoftAuthenticator) GetAssertion(ctx context.Context, req core.AssertionRequest) (*core.Assertion, error) {
	if err := a.gate(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	discoverable := len(req.AllowCredentials) == 0
	cred := a.selectCredential(req)
	if cred == nil {
		return nil, fmt.Errorf("%w: no matching credential", core.ErrCeremonyInvalid)
	}

	cred.signCount++

	clientData, err := clientDataJSON("webauthn.get", req.Challenge, a.origin)
	if err != nil {
		return nil, err
	}

	authData := assertionAuthData(req.RelyingPartyID, cred.signCount)

	clientDataHash := sha256.Sum256(clientData)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientDataHash[:]...))
	sig, err := ecdsa.SignASN1(rand.Reader, cred.key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign assertion: %w", err)
	}

	assertion := &core.Assertion{
		CredentialID:      cred.id,
		AuthenticatorData: authData,
		ClientDataJSON:    clientData,
		Signature:         sig,
	}
	if discoverable {
		assertion.UserHandle = append([]byte{}, cred.userHandle...)
	}
	return assertion, nil
}

func (a *SoftAuthenticator) selectCredential(req core.AssertionRequest) *softCredential {
	if len(req.AllowCredentials) == 0 {
		for _, cred := range a.creds {
			if cred.rpID == req.RelyingPartyID {
				return cred
			}
		}
		return nil
	}
	for _, allowed := range req.AllowCredentials {
		for _, cred := range a.creds {
			if cred.rpID == req.RelyingPartyID && bytes.Equal(cred.id, allowed.ID) {
				return cred
			}
		}
	}
	return nil
}

// gate enforces cancellation and the secure-context requirement before any
// ceremony work.
func (a *SoftAuthenticator) gate(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", core.ErrCeremonyCancelled, ctx.Err())
	default:
	}
	if !secureOrigin(a.origin) {
		return fmt.Errorf("%w: origin %q is not a secure context", core.ErrCeremonySecurity, a.origin)
	}
	return nil
}

func secureOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	return u.Scheme == "http" && (u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1")
}

func supportsES256(params []core.CredentialParam) bool {
	if len(params) == 0 {
		return true
	}
	for _, p := range params {
		if p.Algorithm == algES256 {
			return true
		}
	}
	return false
}

type collectedClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin"`
}

func clientDataJSON(ceremonyType string, challenge []byte, origin string) ([]byte, error) {
	data, err := json.Marshal(collectedClientData{
		Type:      ceremonyType,
		Challenge: codec.Encode(challenge),
		Origin:    origin,
	})
	if err != nil {
		return nil, fmt.Errorf("encode client data: %w", err)
	}
	return data, nil
}

type attestationObject struct {
	AuthData     []byte         `cbor:"authData"`
	Format       string         `cbor:"fmt"`
	AttStatement map[string]any `cbor:"attStmt"`
}

// encodeCOSEKey encodes a P-256 public key as a COSE_Key EC2 map (kty 2,
// alg ES256, crv P-256).
func encodeCOSEKey(pub *ecdsa.PublicKey) ([]byte, error) {
	type coseEC2Key struct {
		KeyType   int    `cbor:"1,keyasint"`
		Algorithm int    `cbor:"3,keyasint"`
		Curve     int    `cbor:"-1,keyasint"`
		X         []byte `cbor:"-2,keyasint"`
		Y         []byte `cbor:"-3,keyasint"`
	}
	key := coseEC2Key{
		KeyType:   2,
		Algorithm: algES256,
		Curve:     1,
		X:         pub.X.FillBytes(make([]byte, 32)),
		Y:         pub.Y.FillBytes(make([]byte, 32)),
	}
	data, err := cbor.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("encode COSE key: %w", err)
	}
	return data, nil
}

func attestedAuthData(rpID string, credID, coseKey []byte) []byte {
	rpHash := sha256.Sum256([]byte(rpID))

	data := make([]byte, 0, 37+16+2+len(credID)+len(coseKey))
	data = append(data, rpHash[:]...)
	data = append(data, flagUserPresent|flagUserVerified|flagAttestedCreds)
	data = binary.BigEndian.AppendUint32(data, 0)

	var aaguid [16]byte
	data = append(data, aaguid[:]...)
	data = binary.BigEndian.AppendUint16(data, uint16(len(credID)))
	data = append(data, credID...)
	data = append(data, coseKey...)
	return data
}

func assertionAuthData(rpID string, signCount uint32) []byte {
	rpHash := sha256.Sum256([]byte(rpID))

	data := make([]byte, 0, 37)
	data = append(data, rpHash[:]...)
	data = append(data, flagUserPresent|flagUserVerified)
	data = binary.BigEndian.AppendUint32(data, signCount)
	return data
}
