package core

import (
	"context"
	"errors"
	"fmt"
)

// Authenticator-side failure signals. Authenticator implementations return
// these; the orchestrators map them into the classified taxonomy below.
var (
	ErrCeremonyCancelled   = errors.New("ceremony cancelled or timed out")
	ErrCeremonyInvalid     = errors.New("authenticator cannot satisfy the request")
	ErrCeremonySecurity    = errors.New("security requirements not met")
	ErrCeremonyUnsupported = errors.New("requested configuration unsupported")
)

// ErrorKind classifies a ceremony failure. Every failure that crosses the
// orchestrator boundary carries exactly one kind.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindPlatformUnsupported ErrorKind = "platform_unsupported"
	KindCeremonyCancelled   ErrorKind = "ceremony_cancelled"
	KindCeremonyInvalid     ErrorKind = "ceremony_invalid_state"
	KindCeremonySecurity    ErrorKind = "ceremony_security_violation"
	KindCeremonyUnsupported ErrorKind = "ceremony_unsupported_config"
	KindServerRejected      ErrorKind = "server_rejected"
	KindStaleChallenge      ErrorKind = "stale_challenge_conflict"
	KindTransport           ErrorKind = "transport"
)

var userMessages = map[ErrorKind]string{
	KindValidation:          "A required field is missing.",
	KindPlatformUnsupported: "No credential API is available on this platform.",
	KindCeremonyCancelled:   "The security key prompt was dismissed or timed out. Please try again.",
	KindCeremonyInvalid:     "This security key cannot be used here. It may already be registered, or no matching key was found.",
	KindCeremonySecurity:    "The connection does not meet the security key's requirements.",
	KindCeremonyUnsupported: "The requested configuration is not supported by this security key.",
	KindServerRejected:      "The server rejected the verification.",
	KindStaleChallenge:      "Multiple outstanding attempts detected. Clear previous attempts and try again.",
	KindTransport:           "Could not reach the authentication server.",
}

// CeremonyError is a classified ceremony failure.
type CeremonyError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CeremonyError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *CeremonyError) Unwrap() error { return e.Err }

// UserMessage returns the human-readable message for the failure. A message
// supplied by the server wins over the generic one for its kind.
func (e *CeremonyError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return userMessages[e.Kind]
}

// NewCeremonyError builds a classified error wrapping cause.
func NewCeremonyError(kind ErrorKind, message string, cause error) *CeremonyError {
	return &CeremonyError{Kind: kind, Message: message, Err: cause}
}

// Classify maps an arbitrary failure into the taxonomy. Already-classified
// errors pass through unchanged; authenticator signals and context
// cancellation map to their dedicated kinds; anything else is a transport
// failure.
func Classify(err error) *CeremonyError {
	var ce *CeremonyError
	if errors.As(err, &ce) {
		return ce
	}

	switch {
	case errors.Is(err, ErrCeremonyCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return NewCeremonyError(KindCeremonyCancelled, "", err)
	case errors.Is(err, ErrCeremonyInvalid):
		return NewCeremonyError(KindCeremonyInvalid, "", err)
	case errors.Is(err, ErrCeremonySecurity):
		return NewCeremonyError(KindCeremonySecurity, "", err)
	case errors.Is(err, ErrCeremonyUnsupported):
		return NewCeremonyError(KindCeremonyUnsupported, "", err)
	}

	return NewCeremonyError(KindTransport, "", err)
}

// IsKind reports whether err is a ceremony error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *CeremonyError
	return errors.As(err, &ce) && ce.Kind == kind
}
