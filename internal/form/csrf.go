// internal/form/csrf.go
//
// Stateless CSRF tokens for the newsletter form.
//
// Context
//   The rendered form embeds a hidden `csrf_token` input.  On POST the token
//   must verify before any field update reaches the store.  Tokens carry no
//   server-side state:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   Verification checks the signature and that the timestamp lies within
//   MaxAge, so any instance sharing the secret accepts the token.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size

	// DefaultTokenAge bounds how long a rendered form stays postable.
	DefaultTokenAge = 2 * time.Hour
)

// ErrShortSecret is returned by NewCSRF for keys under 32 bytes.
var ErrShortSecret = errors.New("form: csrf secret must be at least 32 bytes")

// CSRF issues and verifies tokens under one secret.
type CSRF struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF returns a token service keyed by secret.
func NewCSRF(secret []byte) (*CSRF, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &CSRF{secret: secret, maxAge: DefaultTokenAge, now: time.Now}, nil
}

// NewEphemeralKey returns 32 random bytes for process-local signing.
func NewEphemeralKey() []byte {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return key
}

// NewEphemeralCSRF generates a random key.  Tokens die with the process.
func NewEphemeralCSRF() *CSRF {
	c, _ := NewCSRF(NewEphemeralKey())
	return c
}

// DecodeSecret parses a base64url secret as stored in config.
func DecodeSecret(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) < 32 {
		return nil, ErrShortSecret
	}
	return b, nil
}

// Generate creates a token.  Call once per form render.
func (c *CSRF) Generate() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok is authentic and fresh.
func (c *CSRF) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}
	nonce, ts, sig := raw[:nonceBytes], raw[nonceBytes:nonceBytes+8], raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := c.now()
	if now.Sub(issued) > c.maxAge || issued.Sub(now) > time.Minute {
		return false
	}
	return hmac.Equal(sig, c.sign(nonce, ts))
}

func (c *CSRF) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
