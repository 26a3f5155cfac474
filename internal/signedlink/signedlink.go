package signedlink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

var (
	ErrLinkExpired = errors.New("signed link expired")
	ErrLinkInvalid = errors.New("signed link signature is invalid")
	ErrEmptySecret = errors.New("signed link secret cannot be empty")
)

// Signer issues and verifies self-describing booking links. The token is
// an HMAC-SHA256 over "taskID:expiryUnixMilli", so verification needs no
// store lookup.
type Signer struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

type Link struct {
	TaskID       int       `json:"task_id"`
	Token        string    `json:"token"`
	ExpiresAt    int64     `json:"expires_at"`
	ExpiresAtISO time.Time `json:"expires_at_iso"`
	Path         string    `json:"path"`
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Generate produces a link for taskID expiring after the signer's TTL.
func (s *Signer) Generate(taskID int) Link {
	return s.GenerateWithExpiry(taskID, s.now().Add(s.ttl))
}

func (s *Signer) GenerateWithExpiry(taskID int, expiresAt time.Time) Link {
	expiry := expiresAt.UnixMilli()
	token := s.sign(taskID, expiry)

	return Link{
		TaskID:       taskID,
		Token:        token,
		ExpiresAt:    expiry,
		ExpiresAtISO: expiresAt.UTC(),
		Path:         fmt.Sprintf("/public/tasks/%d/slots?token=%s&exp=%d", taskID, token, expiry),
	}
}

// Verify checks expiry before the signature: an expired link is reported
// as expired regardless of whether its signature is correct.
func (s *Signer) Verify(taskID int, token string, expiry int64) error {
	if s.now().UnixMilli() > expiry {
		return ErrLinkExpired
	}

	expected := s.sign(taskID, expiry)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrLinkInvalid
	}
	return nil
}

func (s *Signer) sign(taskID int, expiry int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d:%d", taskID, expiry)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
