package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCookieStore_WriteAttributes(t *testing.T) {
	tests := []struct {
		name       string
		secure     bool
		wantSecure bool
	}{
		{name: "dev", secure: false, wantSecure: false},
		{name: "production", secure: true, wantSecure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			store := NewCookieStore(tt.secure)
			store.now = func() time.Time { return now }

			expiresAt := now.Add(7 * 24 * time.Hour)
			w := httptest.NewRecorder()
			store.Write(w, "tok", expiresAt)

			header := w.Header().Get("Set-Cookie")
			for _, want := range []string{"session=tok", "Path=/", "HttpOnly", "SameSite=Lax", "Max-Age=604800"} {
				if !strings.Contains(header, want) {
					t.Fatalf("Set-Cookie %q missing %q", header, want)
				}
			}

			c := sessionCookie(t, w.Result())
			if c.Secure != tt.wantSecure {
				t.Fatalf("Secure = %v, want %v", c.Secure, tt.wantSecure)
			}
			if !c.Expires.Equal(expiresAt) {
				t.Fatalf("Expires = %s, want %s", c.Expires, expiresAt)
			}
		})
	}
}

func TestCookieStore_ReadAndClear(t *testing.T) {
	store := NewCookieStore(false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := store.Read(r); ok {
		t.Fatalf("expected no token on a bare request")
	}

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc"})
	tok, ok := store.Read(r)
	if !ok || tok != "abc" {
		t.Fatalf("Read = %q,%v want abc,true", tok, ok)
	}

	w := httptest.NewRecorder()
	store.Clear(w)

	header := w.Header().Get("Set-Cookie")
	for _, want := range []string{"session=;", "Max-Age=0", "Expires=Thu, 01 Jan 1970 00:00:00 GMT", "HttpOnly", "SameSite=Lax", "Path=/"} {
		if !strings.Contains(header, want) {
			t.Fatalf("clear Set-Cookie %q missing %q", header, want)
		}
	}
}
