package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/gatekeeper/internal/domain/repository"
)

// UserRepo implementa repository.UserRepository.
type UserRepo struct{ s *Store }

func NewUserRepo(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	const q = `SELECT id, username, password_hash, created_at, disabled_at, locked_at
	           FROM app_user WHERE username = $1`
	var u repository.User
	err := r.s.pool.QueryRow(ctx, q, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.DisabledAt, &u.LockedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	const q = `INSERT INTO app_user (username, password_hash)
	           VALUES ($1, $2)
	           RETURNING id, username, password_hash, created_at`
	var u repository.User
	err := r.s.pool.QueryRow(ctx, q, input.Username, input.PasswordHash).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Disable(ctx context.Context, username string) error {
	return r.setDisabled(ctx, username, true)
}

func (r *UserRepo) Enable(ctx context.Context, username string) error {
	return r.setDisabled(ctx, username, false)
}

func (r *UserRepo) setDisabled(ctx context.Context, username string, disabled bool) error {
	var at *time.Time
	if disabled {
		now := time.Now().UTC()
		at = &now
	}
	tag, err := r.s.pool.Exec(ctx,
		`UPDATE app_user SET disabled_at = $2 WHERE username = $1`, username, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
