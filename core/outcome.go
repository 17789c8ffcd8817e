package core

import "time"

// User is the identity attached to a verified session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// VerificationOutcome is the canonical server verdict on a ceremony. The
// gateway normalizes every accepted response shape into this struct before
// the orchestrators inspect it.
type VerificationOutcome struct {
	Verified bool
	Token    string
	User     *User
	Message  string
}

// TokenVerification is the server verdict on an SSO token.
type TokenVerification struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user,omitempty"`
}

// CredentialSummary describes one registered credential in a profile.
type CredentialSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// Profile is the authenticated user's profile record.
type Profile struct {
	ID          string              `json:"id"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	FirstName   string              `json:"first_name,omitempty"`
	LastName    string              `json:"last_name,omitempty"`
	Credentials []CredentialSummary `json:"credentials,omitempty"`
}

// MaintenanceResult reports the effect of a clear-pending-challenges call.
type MaintenanceResult struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message,omitempty"`
}
