package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	"github.com/geocoder89/storefront/internal/observability"
)

var errNoDatabase = errors.New("seed needs DATABASE_URL or DB_HOST")

// seed applies migrations and provisions the users from USERS_FILE (or the
// bundled demo users) into postgres. Existing emails are left untouched.
func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	err := run(ctx, cfg, log)
	stop()

	if err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.DBURL == "" {
		return errNoDatabase
	}

	seeds, err := db.LoadSeed(cfg.UsersFile)
	if err != nil {
		return err
	}

	users, err := db.Provision(seeds)
	if err != nil {
		return fmt.Errorf("provision users: %w", err)
	}

	if err := db.Migrate(cfg.DBURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, 2)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	inserted, err := db.SeedUsers(ctx, pool, users)
	if err != nil {
		return fmt.Errorf("seed users (inserted %d): %w", inserted, err)
	}

	log.Info("seed complete", "users", len(users), "inserted", inserted)
	return nil
}
