package http

import (
	"log/slog"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxLoginBody = 8 << 10

// Deps is everything the router needs that is built outside of it.
type Deps struct {
	Auth        *handlers.AuthHandler
	Pages       *handlers.PagesHandler
	Health      *handlers.HealthHandler
	Guard       *middlewares.RouteGuard
	RateLimiter *middlewares.RateLimiter
	Prom        *observability.Prom
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(otelgin.Middleware("storefront"))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.IsProduction()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowOrigins))

	// the guard runs for every request and only acts on protected paths
	r.Use(deps.Guard.Handler())

	// health
	r.GET("/healthz", deps.Health.Healthz)
	r.GET("/readyz", deps.Health.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/auth")
	{
		login := []gin.HandlerFunc{middlewares.MaxBodyBytes(maxLoginBody)}
		if deps.RateLimiter != nil {
			login = append(login, deps.RateLimiter.Middleware(middlewares.KeyByIP))
		}
		login = append(login, deps.Auth.Login)

		api.POST("/login", login...)
		api.POST("/logout", deps.Auth.Logout)
		api.GET("/session", deps.Auth.Session)
	}

	// storefront pages
	r.GET("/:market", deps.Pages.Home)
	r.GET("/:market/login", deps.Pages.Login)
	r.GET("/:market/products", deps.Pages.Products)
	r.GET("/:market/product/:id", deps.Pages.Product)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "route not found")
	})

	return r
}
