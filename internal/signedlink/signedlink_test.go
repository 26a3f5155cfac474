package signedlink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("test-link-secret", 72*time.Hour)
	require.NoError(t, err)
	return s
}

func TestNewSignerRejectsEmptySecret(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestGenerateAndVerify(t *testing.T) {
	s := newTestSigner(t)

	link := s.Generate(42)
	assert.Equal(t, 42, link.TaskID)
	assert.NotEmpty(t, link.Token)
	assert.Contains(t, link.Path, "/public/tasks/42/slots?token=")

	err := s.Verify(42, link.Token, link.ExpiresAt)
	assert.NoError(t, err)
}

func TestVerifyExpiredBeforeSignature(t *testing.T) {
	s := newTestSigner(t)

	// Token is valid in every byte, but expiry is in the past.
	past := time.Now().Add(-time.Minute)
	link := s.GenerateWithExpiry(42, past)

	err := s.Verify(42, link.Token, link.ExpiresAt)
	assert.ErrorIs(t, err, ErrLinkExpired)

	// Even a garbage token on an expired link reports expiry, not invalid.
	err = s.Verify(42, "garbage", link.ExpiresAt)
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestVerifyTamperedToken(t *testing.T) {
	s := newTestSigner(t)

	link := s.Generate(42)

	// Flip one character of the signature.
	tampered := []byte(link.Token)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}

	err := s.Verify(42, string(tampered), link.ExpiresAt)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestVerifyWrongTask(t *testing.T) {
	s := newTestSigner(t)

	link := s.Generate(42)

	err := s.Verify(43, link.Token, link.ExpiresAt)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestVerifyTamperedExpiry(t *testing.T) {
	s := newTestSigner(t)

	link := s.Generate(42)

	// Extending the expiry invalidates the signature.
	err := s.Verify(42, link.Token, link.ExpiresAt+60_000)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestTokensDifferAcrossSecrets(t *testing.T) {
	s1 := newTestSigner(t)
	s2, err := NewSigner("another-secret", 72*time.Hour)
	require.NoError(t, err)

	link := s1.Generate(42)
	err = s2.Verify(42, link.Token, link.ExpiresAt)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}
