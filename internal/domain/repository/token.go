package repository

import (
	"context"
	"time"
)

// PersistentToken es un token remember-me rotativo, identificado por su serie.
// El valor guardado es un hash del token presentado al cliente, nunca el crudo.
type PersistentToken struct {
	Series    string
	Username  string
	TokenHash string
	LastUsed  time.Time
}

// TokenRepository define operaciones sobre la tabla persistent_logins.
type TokenRepository interface {
	// Insert guarda un token nuevo para una serie recién emitida.
	// Retorna ErrConflict si la serie ya existe.
	Insert(ctx context.Context, t PersistentToken) error

	// GetBySeries busca el token de una serie.
	// Retorna ErrNotFound si la serie no existe.
	GetBySeries(ctx context.Context, series string) (*PersistentToken, error)

	// Rotate reemplaza el valor de una serie sólo si el valor actual coincide
	// con oldHash (compare-and-set). Retorna ErrNotFound si la serie no
	// existe y ErrStaleToken si existe pero el valor guardado es otro.
	Rotate(ctx context.Context, series, oldHash, newHash string, usedAt time.Time) error

	// DeleteBySeries elimina una serie puntual.
	DeleteBySeries(ctx context.Context, series string) error

	// DeleteByUsername elimina todas las series de un usuario.
	// Retorna la cantidad de series eliminadas.
	DeleteByUsername(ctx context.Context, username string) (int, error)
}
