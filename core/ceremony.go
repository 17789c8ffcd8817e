package core

import "time"

// DefaultCeremonyTimeout applies when a challenge packet omits its timeout.
const DefaultCeremonyTimeout = 60 * time.Second

// CreationUser is the user entity handed to the authenticator when a
// credential is created. The ID is the raw bytes decoded from the challenge
// packet.
type CreationUser struct {
	ID          []byte
	Name        string
	DisplayName string
}

// CreationRequest is the credential-creation request handed to the platform
// authenticator during registration.
type CreationRequest struct {
	Challenge              []byte
	RelyingParty           RelyingParty
	User                   CreationUser
	Params                 []CredentialParam
	Timeout                time.Duration
	AuthenticatorSelection *AuthenticatorSelection
	Attestation            string
}

// AllowedCredentialRef is one allow-list entry with its identifier decoded to
// bytes.
type AllowedCredentialRef struct {
	ID         []byte
	Type       string
	Transports []string
}

// AssertionRequest is the credential-request handed to the platform
// authenticator during authentication. An empty allow list requests the
// discoverable-credential flow.
type AssertionRequest struct {
	Challenge        []byte
	RelyingPartyID   string
	Timeout          time.Duration
	UserVerification string
	AllowCredentials []AllowedCredentialRef
}

// Attestation is the authenticator's registration result. The binary fields
// are owned by the ceremony that produced them and are encoded to text
// immediately before transmission.
type Attestation struct {
	CredentialID      []byte
	ClientDataJSON    []byte
	AttestationObject []byte
}

// Assertion is the authenticator's authentication result. UserHandle is only
// present for discoverable-credential flows.
type Assertion struct {
	CredentialID      []byte
	AuthenticatorData []byte
	ClientDataJSON    []byte
	Signature         []byte
	UserHandle        []byte
}

// RegistrationProof is the text-encoded registration result submitted for
// server verification.
type RegistrationProof struct {
	Username          string `json:"username"`
	CredentialID      string `json:"credential_id"`
	ClientDataJSON    string `json:"client_data_json"`
	AttestationObject string `json:"attestation_object"`
}

// AuthenticationProof is the text-encoded authentication result submitted for
// server verification.
type AuthenticationProof struct {
	CredentialID      string `json:"credential_id"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
	UserHandle        string `json:"user_handle,omitempty"`
}
