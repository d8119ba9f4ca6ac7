package middlewares

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/market"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SessionReader is the one verification routine shared by the guard and page handlers.
type SessionReader interface {
	Get(r *http.Request) auth.Result
}

type GuardObserver interface {
	ObserveGuard(decision string, status auth.Status)
}

// ProtectedPatterns matches /<market>/products[/...] and /<market>/product/<id>.
var ProtectedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/[a-z]{2}/products(/.*)?$`),
	regexp.MustCompile(`^/[a-z]{2}/product/.*$`),
}

type GuardConfig struct {
	Patterns      []*regexp.Regexp
	IsMarket      func(segment string) bool
	DefaultMarket string
	LoginPath     func(market string) string
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Patterns:      ProtectedPatterns,
		IsMarket:      market.IsValid,
		DefaultMarket: string(market.Default),
		LoginPath: func(m string) string {
			return market.LoginPath(market.Market(m))
		},
	}
}

const (
	GuardPass     = "pass"
	GuardRedirect = "redirect"
	GuardPublic   = "public"
)

type RouteGuard struct {
	sessions SessionReader
	cfg      GuardConfig
	observer GuardObserver
}

func NewRouteGuard(sessions SessionReader, cfg GuardConfig, observer GuardObserver) *RouteGuard {
	return &RouteGuard{sessions: sessions, cfg: cfg, observer: observer}
}

func (g *RouteGuard) IsProtected(path string) bool {
	for _, p := range g.cfg.Patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

// Decide returns the redirect target for r, or "" when the request may proceed.
// It keeps no state between calls.
func (g *RouteGuard) Decide(r *http.Request) (string, string, auth.Status) {
	path := r.URL.Path

	if !g.IsProtected(path) {
		return "", GuardPublic, auth.StatusAbsent
	}

	res := g.sessions.Get(r)
	if res.Valid() {
		return "", GuardPass, res.Status
	}

	return g.loginURL(path), GuardRedirect, res.Status
}

func (g *RouteGuard) loginURL(path string) string {
	segment := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]

	m := g.cfg.DefaultMarket
	if g.cfg.IsMarket(segment) {
		m = segment
	}

	return g.cfg.LoginPath(m) + "?callbackUrl=" + url.QueryEscape(path)
}

func (g *RouteGuard) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		target, decision, status := g.Decide(c.Request)

		if decision != GuardPublic {
			c.Set(CtxSession, status.String())

			span := trace.SpanFromContext(c.Request.Context())
			span.SetAttributes(
				attribute.String("auth.guard.decision", decision),
				attribute.String("auth.session.status", status.String()),
			)

			if g.observer != nil {
				g.observer.ObserveGuard(decision, status)
			}
		}

		if target != "" {
			c.Redirect(http.StatusTemporaryRedirect, target)
			c.Abort()
			return
		}

		c.Next()
	}
}
