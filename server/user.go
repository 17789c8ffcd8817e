package server

import (
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/webauthn"
)

// passkeyUser adapts a stored account to the webauthn.User interface.
type passkeyUser struct {
	id          []byte
	name        string
	displayName string
	credentials []webauthn.Credential
}

func (u *passkeyUser) WebAuthnID() []byte { return u.id }

func (u *passkeyUser) WebAuthnName() string { return u.name }

func (u *passkeyUser) WebAuthnDisplayName() string { return u.displayName }

func (u *passkeyUser) WebAuthnIcon() string { return "" }

func (u *passkeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

func decodeStoredCredentials(records []Credential) ([]webauthn.Credential, error) {
	if len(records) == 0 {
		return nil, nil
	}
	credentials := make([]webauthn.Credential, 0, len(records))
	for _, record := range records {
		var credential webauthn.Credential
		if err := json.Unmarshal(record.CredentialJSON, &credential); err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", record.ID, err)
		}
		credentials = append(credentials, credential)
	}
	return credentials, nil
}
