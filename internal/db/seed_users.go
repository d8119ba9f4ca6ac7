package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed seeddata/users.json
var defaultSeed []byte

// SeedUser is one entry of a provisioning file. Either Password or
// PasswordHash must be set; plain passwords are hashed on provisioning.
type SeedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         user.Role `json:"role"`
	Password     string    `json:"password,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
}

// LoadSeed reads seed users from path, or the bundled demo users when path is empty.
func LoadSeed(path string) ([]SeedUser, error) {
	raw := defaultSeed

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}

	var seeds []SeedUser
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	return seeds, nil
}

// Provision turns seed entries into user records, hashing plain passwords.
func Provision(seeds []SeedUser) ([]user.User, error) {
	now := time.Now().UTC()
	out := make([]user.User, 0, len(seeds))
	seen := make(map[string]struct{}, len(seeds))

	for _, s := range seeds {
		if s.Email == "" {
			return nil, errors.New("seed user without email")
		}
		if _, dup := seen[s.Email]; dup {
			return nil, fmt.Errorf("duplicate seed email %q", s.Email)
		}
		seen[s.Email] = struct{}{}

		role := s.Role
		if role == "" {
			role = user.RoleUser
		}
		if !role.Valid() {
			return nil, fmt.Errorf("seed user %q has invalid role %q", s.Email, role)
		}

		hash := s.PasswordHash
		if hash == "" {
			if s.Password == "" {
				return nil, fmt.Errorf("seed user %q has no password", s.Email)
			}

			h, err := security.HashPassword(s.Password)
			if err != nil {
				return nil, fmt.Errorf("hash password for %q: %w", s.Email, err)
			}
			hash = h
		}

		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}

		out = append(out, user.User{
			ID:           id,
			Email:        s.Email,
			PasswordHash: hash,
			Name:         s.Name,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return out, nil
}

// SeedUsers inserts records that do not exist yet; existing emails are left untouched.
func SeedUsers(ctx context.Context, pool *pgxpool.Pool, users []user.User) (int, error) {
	inserted := 0

	for _, u := range users {
		tag, err := pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (email) DO NOTHING
			`,
			u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("seed %q: %w", u.Email, err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}
