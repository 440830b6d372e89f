package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/quicknotes/internal/domain/user"
)

type UsersRepo struct {
	mu      sync.RWMutex
	byEmail map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{byEmail: make(map[string]user.User)}
}

// Create enforces email uniqueness the way a unique index would.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	key := user.NormalizeEmail(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[key]; exists {
		return user.User{}, user.ErrEmailTaken
	}
	u.Email = key
	r.byEmail[key] = u
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	u, ok := r.byEmail[user.NormalizeEmail(email)]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
