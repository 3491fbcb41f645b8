// Package memory implementa los repositorios sobre maps en memoria.
// Pensado para desarrollo y tests; producción usa el driver postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]*repository.User // key: username
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*repository.User)}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[input.Username]; ok {
		return nil, repository.ErrConflict
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[input.Username] = u
	cp := *u
	return &cp, nil
}

func (r *UserRepo) Disable(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	u.DisabledAt = &now
	return nil
}

func (r *UserRepo) Enable(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.DisabledAt = nil
	return nil
}

// Lock bloquea una cuenta. No es parte de UserRepository; lo usan tests y
// el seed de desarrollo.
func (r *UserRepo) Lock(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		now := time.Now().UTC()
		u.LockedAt = &now
	}
}
