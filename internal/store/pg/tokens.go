package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
)

// TokenRepo implementa repository.TokenRepository sobre persistent_logins.
type TokenRepo struct{ s *Store }

func NewTokenRepo(s *Store) *TokenRepo { return &TokenRepo{s: s} }

func (r *TokenRepo) Insert(ctx context.Context, t repository.PersistentToken) error {
	const q = `INSERT INTO persistent_logins (series, username, token, last_used)
	           VALUES ($1, $2, $3, $4)`
	_, err := r.s.pool.Exec(ctx, q, t.Series, t.Username, t.TokenHash, t.LastUsed)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *TokenRepo) GetBySeries(ctx context.Context, series string) (*repository.PersistentToken, error) {
	const q = `SELECT series, username, token, last_used
	           FROM persistent_logins WHERE series = $1`
	var t repository.PersistentToken
	err := r.s.pool.QueryRow(ctx, q, series).Scan(&t.Series, &t.Username, &t.TokenHash, &t.LastUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Rotate es un UPDATE condicional: la fila sólo cambia si el valor guardado
// coincide con oldHash. Cero filas afectadas obliga a distinguir serie
// inexistente de valor viejo con un SELECT posterior.
func (r *TokenRepo) Rotate(ctx context.Context, series, oldHash, newHash string, usedAt time.Time) error {
	const q = `UPDATE persistent_logins
	           SET token = $3, last_used = $4
	           WHERE series = $1 AND token = $2`
	tag, err := r.s.pool.Exec(ctx, q, series, oldHash, newHash, usedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetBySeries(ctx, series); err != nil {
		return err // ErrNotFound o error de infra
	}
	return repository.ErrStaleToken
}

func (r *TokenRepo) DeleteBySeries(ctx context.Context, series string) error {
	_, err := r.s.pool.Exec(ctx, `DELETE FROM persistent_logins WHERE series = $1`, series)
	return err
}

func (r *TokenRepo) DeleteByUsername(ctx context.Context, username string) (int, error) {
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM persistent_logins WHERE username = $1`, username)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
