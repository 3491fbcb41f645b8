package repository

import (
	"context"
	"time"
)

// User representa una cuenta local contra la que se validan credenciales.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	DisabledAt   *time.Time
	LockedAt     *time.Time
}

// Disabled informa si la cuenta está deshabilitada.
func (u *User) Disabled() bool { return u.DisabledAt != nil }

// Locked informa si la cuenta está bloqueada.
func (u *User) Locked() bool { return u.LockedAt != nil }

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Username     string
	PasswordHash string
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByUsername busca un usuario por username.
	// Retorna ErrNotFound si no existe.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create crea un nuevo usuario.
	// Retorna ErrConflict si el username ya existe.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// Disable deshabilita un usuario.
	Disable(ctx context.Context, username string) error

	// Enable rehabilita un usuario deshabilitado.
	Enable(ctx context.Context, username string) error
}
