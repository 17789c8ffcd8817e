package server

import "errors"

var (
	// ErrUsernameRequired is returned when an operation needs a username.
	ErrUsernameRequired = errors.New("username is required")

	// ErrUserExists is returned when registering an already-taken username.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when no user matches the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrCredentialNotFound is returned when no registered credential
	// matches the presented one.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrChallengeNotFound is returned when a verify call arrives with no
	// outstanding challenge.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrStaleChallenge is returned when more than one challenge is
	// outstanding for the identity, usually after an abandoned ceremony.
	ErrStaleChallenge = errors.New("multiple outstanding authentication attempts")

	// ErrVerificationFailed is returned when the ceremony response does not
	// verify.
	ErrVerificationFailed = errors.New("verification failed")
)
