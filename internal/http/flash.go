package http

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	flashCookieName = "expenses_flash"
	// Browsers cap cookies near 4KB; older notices are dropped past this.
	maxFlashCookieBytes = 3072
)

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flashStore keeps pending notices in a signed cookie.
type flashStore struct {
	secret []byte
}

// newFlashStore uses secret as the HMAC key, or a random key when it is
// empty. A random key invalidates pending notices on restart.
func newFlashStore(secret string) (*flashStore, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate flash secret: %w", err)
		}
	}
	return &flashStore{secret: key}, nil
}

func (f *flashStore) sign(payload string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (f *flashStore) encode(flashes []Flash) (string, error) {
	raw, err := json.Marshal(flashes)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + f.sign(payload), nil
}

// decode returns nil for missing, malformed or tampered values.
func (f *flashStore) decode(value string) []Flash {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok {
		return nil
	}
	if !hmac.Equal([]byte(sig), []byte(f.sign(payload))) {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}

func (f *flashStore) read(r *http.Request) []Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	return f.decode(c.Value)
}

// Add queues a notice after any already pending on the request.
func (f *flashStore) Add(w http.ResponseWriter, r *http.Request, category, message string) error {
	flashes := append(f.read(r), Flash{Category: category, Message: message})

	value, err := f.encode(flashes)
	if err != nil {
		return err
	}
	for len(value) > maxFlashCookieBytes && len(flashes) > 1 {
		flashes = flashes[1:]
		if value, err = f.encode(flashes); err != nil {
			return err
		}
	}

	http.SetCookie(w, f.cookie(r, value, 0))
	return nil
}

// Pop returns the pending notices and clears the cookie.
func (f *flashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(flashCookieName); err != nil {
		return nil
	}
	http.SetCookie(w, f.cookie(r, "", -1))
	return f.read(r)
}

func (f *flashStore) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
