package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/brand"
	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/catalog"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	httpx "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/http/middlewares"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/redisclient"
	"github.com/geocoder89/storefront/internal/repo/memory"
	"github.com/geocoder89/storefront/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "storefront-api", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	b, err := brand.Lookup(cfg.Brand)
	if err != nil {
		return err
	}

	// user store: postgres when configured, otherwise the seed file in memory
	var (
		users      handlers.UserReader
		isNotFound func(error) bool
		checks     = map[string]handlers.Pinger{}
	)

	if cfg.DBURL != "" {
		if err := db.Migrate(cfg.DBURL); err != nil {
			return err
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, 10)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer pool.Close()

		users = postgres.NewUsersRepo(pool, prom)
		isNotFound = func(err error) bool { return errors.Is(err, postgres.ErrUserNotFound) }
		checks["db"] = pool.Ping
		log.Info("user store ready", "store", "postgres")
	} else {
		seeds, err := db.LoadSeed(cfg.UsersFile)
		if err != nil {
			return err
		}
		records, err := db.Provision(seeds)
		if err != nil {
			return err
		}

		repo := memory.NewUsersRepo(records)
		users = repo
		isNotFound = func(err error) bool { return errors.Is(err, memory.ErrUserNotFound) }
		log.Info("user store ready", "store", "memory", "users", repo.Count())
	}

	// login rate limiting: shared through redis when configured
	var counter middlewares.Counter = middlewares.NewMemoryCounter(cfg.LoginRateWindow)
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		counter = rc.WindowCounter("storefront:login:", cfg.LoginRateWindow)
		checks["redis"] = rc.Ping
	}

	codec := auth.NewCodec([]byte(cfg.JWTSecret), cfg.SessionTTL)
	if err := codec.CheckKey(); err != nil {
		// serve anyway: every protected request fails closed until the key is fixed
		log.Warn("session signing key misconfigured; logins will fail", "err", err)
	}
	sessions := auth.NewSessions(codec, auth.NewCookieStore(cfg.IsProduction()))

	authHandler, err := handlers.NewAuthHandler(users, sessions, handlers.AuthHandlerConfig{
		LoginDelay: cfg.LoginDelay,
		IsNotFound: isNotFound,
		Observer:   prom,
		Log:        log,
	})
	if err != nil {
		return err
	}

	products := catalog.NewClient(
		cfg.CatalogBaseURL,
		nil,
		cache.New(cfg.CatalogCacheTTL),
		catalog.WithRateLimit(float64(cfg.CatalogRPS), cfg.CatalogRPS),
	)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Auth:        authHandler,
		Pages:       handlers.NewPagesHandler(sessions, products, b, log),
		Health:      handlers.NewHealthHandler(checks),
		Guard:       middlewares.NewRouteGuard(sessions, middlewares.DefaultGuardConfig(), prom),
		RateLimiter: middlewares.NewRateLimiter(cfg.LoginRateLimit, counter, log),
		Prom:        prom,
		Gatherer:    reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "brand", b.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// compile-time checks for the adapters wired above
var (
	_ handlers.UserReader     = (*memory.UsersRepo)(nil)
	_ handlers.UserReader     = (*postgres.UsersRepo)(nil)
	_ handlers.SessionManager = (*auth.Sessions)(nil)
	_ postgres.DBObserver     = (*observability.Prom)(nil)
)
