package auth

import (
	"net/http"
	"time"
)

const SessionCookieName = "session"

// CookieStore persists the session token in a single HTTP-only cookie.
type CookieStore struct {
	name   string
	secure bool
	now    func() time.Time
}

func NewCookieStore(secure bool) CookieStore {
	return CookieStore{
		name:   SessionCookieName,
		secure: secure,
		now:    time.Now,
	}
}

func (s CookieStore) Name() string {
	return s.name
}

func (s CookieStore) Write(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(s.now()).Seconds())
	if maxAge <= 0 {
		// Max-Age=0 would be written as "delete now"; the token is already dead.
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s CookieStore) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
