package core

// RelyingParty identifies the service a credential is scoped to.
type RelyingParty struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// UserIdentity is the user entity carried inside a registration challenge.
// ID is base64url text on the wire and is decoded to bytes only for the
// authenticator invocation.
type UserIdentity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// CredentialParam is one accepted public-key algorithm.
type CredentialParam struct {
	Type      string `json:"type"`
	Algorithm int    `json:"alg"`
}

// AuthenticatorSelection is the server's authenticator policy for
// registration ceremonies.
type AuthenticatorSelection struct {
	AuthenticatorAttachment string `json:"authenticatorAttachment,omitempty"`
	ResidentKey             string `json:"residentKey,omitempty"`
	UserVerification        string `json:"userVerification,omitempty"`
}

// RegistrationChallenge is the server-issued packet that scopes one
// registration ceremony. It is single use; the server discards it after one
// verify call or after its timeout.
type RegistrationChallenge struct {
	Challenge              string                  `json:"challenge"`
	RelyingParty           RelyingParty            `json:"rp"`
	User                   UserIdentity            `json:"user"`
	Params                 []CredentialParam       `json:"pubKeyCredParams"`
	Timeout                int                     `json:"timeout,omitempty"`
	AuthenticatorSelection *AuthenticatorSelection `json:"authenticatorSelection,omitempty"`
	Attestation            string                  `json:"attestation,omitempty"`
}

// AllowedCredential names one credential the server will accept for an
// authentication ceremony.
type AllowedCredential struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Transports []string `json:"transports,omitempty"`
}

// AuthenticationChallenge is the server-issued packet for one login ceremony.
// An empty AllowCredentials list means the discoverable-credential flow.
type AuthenticationChallenge struct {
	Challenge        string              `json:"challenge"`
	RelyingPartyID   string              `json:"rpId"`
	Timeout          int                 `json:"timeout,omitempty"`
	UserVerification string              `json:"userVerification,omitempty"`
	AllowCredentials []AllowedCredential `json:"allowCredentials,omitempty"`
}

// RegistrationRequest carries the identity fields a registration challenge is
// scoped to.
type RegistrationRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}
