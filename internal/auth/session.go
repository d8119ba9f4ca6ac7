package auth

import (
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
)

// TokenCodec is the signing surface the session service depends on.
// Keep it small so tests can spy on it.
type TokenCodec interface {
	Sign(p user.Payload) (string, time.Time, error)
	Verify(token string) (user.Payload, error)
}

type Status int

const (
	StatusAbsent Status = iota
	StatusInvalid
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Result is the outcome of reading a session from a request.
// User is only meaningful when Status is StatusValid.
type Result struct {
	Status Status
	User   user.Payload
}

func (r Result) Valid() bool {
	return r.Status == StatusValid
}

// Sessions issues, reads and destroys cookie-carried session tokens.
// It holds no per-user state; every call works off the request or writer it is given.
type Sessions struct {
	codec TokenCodec
	store CookieStore
}

func NewSessions(codec TokenCodec, store CookieStore) *Sessions {
	return &Sessions{codec: codec, store: store}
}

func (s *Sessions) Create(w http.ResponseWriter, p user.Payload) error {
	token, expiresAt, err := s.codec.Sign(p)
	if err != nil {
		return err
	}

	s.store.Write(w, token, expiresAt)
	return nil
}

func (s *Sessions) Get(r *http.Request) Result {
	token, ok := s.store.Read(r)
	if !ok {
		return Result{Status: StatusAbsent}
	}

	p, err := s.codec.Verify(token)
	if err != nil {
		return Result{Status: StatusInvalid}
	}

	return Result{Status: StatusValid, User: p}
}

// Session collapses Get into the anonymous/authenticated view pages use.
func (s *Sessions) Session(r *http.Request) (user.Payload, bool) {
	res := s.Get(r)
	return res.User, res.Valid()
}

func (s *Sessions) Destroy(w http.ResponseWriter) {
	s.store.Clear(w)
}
