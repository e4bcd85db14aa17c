// internal/session/session.go
//
// Visitor identity cookie.
//
// Context
//   The newsletter form keeps its state in memory between the POST and the
//   re-render, keyed by an opaque visitor id.  The id lives in a cookie named
//   “nl_visitor”: a random UUID plus an HMAC so a client cannot pick another
//   visitor's id.  Nothing personal is stored in the cookie.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName = "nl_visitor"
	cookieTTL  = 30 * 24 * time.Hour
)

// Manager signs and reads visitor cookies.
type Manager struct {
	secret []byte
}

// NewManager returns a Manager keyed by secret.
func NewManager(secret []byte) *Manager {
	return &Manager{secret: secret}
}

// VisitorID returns the visitor id carried by r, issuing a fresh cookie on
// w when the request has none or a forged one.  fresh reports the latter.
func (m *Manager) VisitorID(w http.ResponseWriter, r *http.Request) (id string, fresh bool) {
	if id, ok := m.Peek(r); ok {
		return id, false
	}
	id = uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id + "." + m.sign(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cookieTTL),
	})
	return id, true
}

// Peek returns the verified visitor id without issuing one.
func (m *Manager) Peek(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, ok := strings.Cut(c.Value, ".")
	if !ok || uuid.Validate(id) != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
