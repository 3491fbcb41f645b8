// Package session mantiene el registro de sesiones opacas en memoria.
package session

import "time"

// Session es una sesión autenticada. El ID es opaco (base64url aleatorio),
// nunca deriva de datos del usuario.
type Session struct {
	ID        string
	Principal string
	UserID    string
	CreatedAt time.Time
	LastSeen  time.Time
	ExpiresAt time.Time
}

// State es el resultado de un Lookup.
type State int

const (
	// Unknown: el ID nunca existió o ya fue olvidado (logout).
	Unknown State = iota
	// Active: sesión viva; el request puede proceder.
	Active
	// Expired: la sesión existió y fue desalojada o venció. El borde HTTP
	// responde con el body de sesión-expirada, no con 401 genérico.
	Expired
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Listener recibe una notificación por cada sesión desalojada por el cupo.
// Se invoca con el lock del registro tomado: debe ser barato y no reentrar.
type Listener interface {
	OnSessionExpired(sid string)
}

// ListenerFunc adapta una función a Listener.
type ListenerFunc func(sid string)

func (f ListenerFunc) OnSessionExpired(sid string) { f(sid) }
