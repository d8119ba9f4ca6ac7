package auth

import (
	"errors"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HS256 key the codec accepts.
const MinSecretLength = 32

var (
	// ErrSigningKey is a configuration error: the secret is missing or too short.
	ErrSigningKey = errors.New("auth: signing key must be set and at least 32 bytes")

	// ErrInvalidToken covers every verification failure. Callers must not be
	// able to tell an expired token from a forged one.
	ErrInvalidToken = errors.New("auth: invalid session token")
)

type Claims struct {
	User user.Payload `json:"user"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type CodecOption func(*Codec)

// WithClock overrides the time source used for iat/exp and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(secret []byte, ttl time.Duration, opts ...CodecOption) *Codec {
	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckKey reports a configuration error without signing anything.
func (c *Codec) CheckKey() error {
	if len(c.secret) < MinSecretLength {
		return ErrSigningKey
	}
	return nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Sign(p user.Payload) (string, time.Time, error) {
	return c.SignWithTTL(p, c.ttl)
}

func (c *Codec) SignWithTTL(p user.Payload, ttl time.Duration) (string, time.Time, error) {
	if err := c.CheckKey(); err != nil {
		return "", time.Time{}, err
	}

	now := c.now().UTC()
	expiresAt := now.Add(ttl)

	claims := Claims{
		User: p,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	raw, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	// exp is serialized with second precision; report what the token carries.
	return raw, claims.ExpiresAt.Time, nil
}

func (c *Codec) Verify(tokenStr string) (user.Payload, error) {
	if c.CheckKey() != nil {
		return user.Payload{}, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return user.Payload{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.User.ID == "" {
		return user.Payload{}, ErrInvalidToken
	}

	return claims.User, nil
}
