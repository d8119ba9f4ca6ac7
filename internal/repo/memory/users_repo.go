package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/geocoder89/storefront/internal/domain/user"
)

var ErrUserNotFound = errors.New("user not found")

// UsersRepo serves seeded user records from memory. Lookups are by exact email.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // keyed by email
}

func NewUsersRepo(users []user.User) *UsersRepo {
	items := make(map[string]user.User, len(users))
	for _, u := range users {
		items[u.Email] = u
	}

	return &UsersRepo{items: items}
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.items[email]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
