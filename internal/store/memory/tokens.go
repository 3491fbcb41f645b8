package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
)

type TokenRepo struct {
	mu     sync.Mutex
	series map[string]*repository.PersistentToken // key: series
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{series: make(map[string]*repository.PersistentToken)}
}

func (r *TokenRepo) Insert(ctx context.Context, t repository.PersistentToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.series[t.Series]; ok {
		return repository.ErrConflict
	}
	cp := t
	r.series[t.Series] = &cp
	return nil
}

func (r *TokenRepo) GetBySeries(ctx context.Context, series string) (*repository.PersistentToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.series[series]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// Rotate es atómico bajo el mutex del repo: compara y reemplaza en un paso,
// igual que el UPDATE condicional del driver postgres.
func (r *TokenRepo) Rotate(ctx context.Context, series, oldHash, newHash string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.series[series]
	if !ok {
		return repository.ErrNotFound
	}
	if t.TokenHash != oldHash {
		return repository.ErrStaleToken
	}
	t.TokenHash = newHash
	t.LastUsed = usedAt
	return nil
}

func (r *TokenRepo) DeleteBySeries(ctx context.Context, series string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.series, series)
	return nil
}

func (r *TokenRepo) DeleteByUsername(ctx context.Context, username string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for s, t := range r.series {
		if t.Username == username {
			delete(r.series, s)
			n++
		}
	}
	return n, nil
}
