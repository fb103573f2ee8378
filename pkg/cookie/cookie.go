// Package cookie sets and reads short-lived signed cookies, such as the
// OAuth state nonce that must survive a round trip through a third party.
//
// Signed values carry their own expiry so a replayed cookie is rejected
// even if the browser kept it:
//
//	m, _ := cookie.New(cookie.Config{Secret: secret, Secure: true})
//	m.SetSigned(w, "notion_state", nonce, 10*time.Minute)
//	v, err := m.GetSigned(r, "notion_state")
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrBadSecret = errors.New("cookie: secret must be at least 32 bytes")
	ErrBadSig    = errors.New("cookie: invalid signature")
	ErrExpired   = errors.New("cookie: expired")
)

// Config is loaded with the COOKIE_ prefix.
type Config struct {
	Secret string `env:"SECRET"`
	Domain string `env:"DOMAIN"`
	Secure bool   `env:"SECURE" envDefault:"true"`
}

// Manager writes cookies with shared attributes. Cookies are always
// HttpOnly and SameSite=Lax so they survive the OAuth redirect back.
type Manager struct {
	secret []byte
	domain string
	secure bool
	now    func() time.Time
}

// New validates cfg.
func New(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, ErrBadSecret
	}
	return &Manager{
		secret: []byte(cfg.Secret),
		domain: cfg.Domain,
		secure: cfg.Secure,
		now:    time.Now,
	}, nil
}

// SetSigned writes value with an HMAC-SHA256 signature that also covers
// the expiry time.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, ttl time.Duration) {
	exp := strconv.FormatInt(m.now().Add(ttl).Unix(), 10)
	payload := base64.RawURLEncoding.EncodeToString([]byte(value)) + "." + exp
	raw := payload + "." + base64.RawURLEncoding.EncodeToString(m.sign(name, payload))
	http.SetCookie(w, m.cookie(name, raw, int(ttl.Seconds())))
}

// GetSigned returns the value written by SetSigned.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}

	// value.expiry.signature
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrBadSig
	}
	if !hmac.Equal(sig, m.sign(name, parts[0]+"."+parts[1])) {
		return "", ErrBadSig
	}

	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrBadSig
	}
	if m.now().Unix() > exp {
		return "", ErrExpired
	}

	value, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrBadSig
	}
	return string(value), nil
}

// Delete expires the cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

// The cookie name is part of the MAC so a value cannot be moved between
// cookies.
func (m *Manager) sign(name, payload string) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
