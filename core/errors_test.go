package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPassesThroughClassifiedErrors(t *testing.T) {
	original := NewCeremonyError(KindStaleChallenge, "multiple attempts", nil)

	classified := Classify(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, classified)
}

func TestClassifyAuthenticatorSignals(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{ErrCeremonyCancelled, KindCeremonyCancelled},
		{context.Canceled, KindCeremonyCancelled},
		{context.DeadlineExceeded, KindCeremonyCancelled},
		{ErrCeremonyInvalid, KindCeremonyInvalid},
		{ErrCeremonySecurity, KindCeremonySecurity},
		{ErrCeremonyUnsupported, KindCeremonyUnsupported},
		{errors.New("connection reset"), KindTransport},
	}

	for _, tc := range cases {
		classified := Classify(fmt.Errorf("ceremony failed: %w", tc.err))
		assert.Equal(t, tc.kind, classified.Kind, "classifying %v", tc.err)
		assert.ErrorIs(t, classified, tc.err)
	}
}

func TestUserMessagePrefersServerMessage(t *testing.T) {
	withMessage := NewCeremonyError(KindServerRejected, "attestation rejected", nil)
	assert.Equal(t, "attestation rejected", withMessage.UserMessage())

	withoutMessage := NewCeremonyError(KindServerRejected, "", nil)
	assert.Equal(t, userMessages[KindServerRejected], withoutMessage.UserMessage())
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewCeremonyError(KindValidation, "", nil))
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindTransport))
	assert.False(t, IsKind(errors.New("plain"), KindValidation))
}
