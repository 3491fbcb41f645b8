package session

import (
	"sync"
	"time"

	"github.com/dropDatabas3/gatekeeper/internal/security/token"
)

// Registry guarda sesiones y aplica el cupo por principal.
//
// Todo pasa por un único mutex: alta, desalojo y transiciones de estado en
// Lookup. Eso garantiza que el orden de registro por principal sea estricto
// y que nunca haya más de max sesiones vivas para el mismo principal, ni por
// un instante.
type Registry struct {
	mu         sync.Mutex
	max        int
	ttl        time.Duration
	sessions   map[string]*Session
	byPrincip  map[string][]string  // sids por principal, más viejo primero
	tombstones map[string]time.Time // sids desalojados o vencidos
	listeners  []Listener
	now        func() time.Time
}

// NewRegistry crea un registro con cupo max por principal y TTL de sesión.
func NewRegistry(max int, ttl time.Duration) *Registry {
	if max < 1 {
		max = 1
	}
	return &Registry{
		max:        max,
		ttl:        ttl,
		sessions:   make(map[string]*Session),
		byPrincip:  make(map[string][]string),
		tombstones: make(map[string]time.Time),
		now:        time.Now,
	}
}

// AddListener registra un listener de desalojos. Llamar antes de servir
// tráfico; no es seguro agregar listeners con el registro en uso.
func (r *Registry) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Register crea una sesión nueva para el principal. Si el principal ya está
// en el cupo, desaloja la sesión más vieja y notifica a los listeners antes
// de soltar el lock.
func (r *Registry) Register(principal, userID string) (*Session, error) {
	sid, err := token.GenerateOpaque(32)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneTombstonesLocked()

	now := r.now()
	for len(r.byPrincip[principal]) >= r.max {
		oldest := r.byPrincip[principal][0]
		r.evictLocked(oldest, principal, now)
	}

	s := &Session{
		ID:        sid,
		Principal: principal,
		UserID:    userID,
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(r.ttl),
	}
	r.sessions[sid] = s
	r.byPrincip[principal] = append(r.byPrincip[principal], sid)

	cp := *s
	return &cp, nil
}

// Lookup devuelve la sesión y su estado. Una sesión vencida por TTL pasa a
// tombstone acá mismo, así los lookups siguientes también reportan Expired.
func (r *Registry) Lookup(sid string) (*Session, State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sid]; ok {
		if r.now().After(s.ExpiresAt) {
			r.removeLocked(sid, s.Principal)
			r.tombstones[sid] = r.now()
			return nil, Expired
		}
		cp := *s
		return &cp, Active
	}
	if _, ok := r.tombstones[sid]; ok {
		return nil, Expired
	}
	return nil, Unknown
}

// Touch renueva LastSeen y corre el vencimiento. Retorna false si la sesión
// no está activa.
func (r *Registry) Touch(sid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sid]
	if !ok || r.now().After(s.ExpiresAt) {
		return false
	}
	now := r.now()
	s.LastSeen = now
	s.ExpiresAt = now.Add(r.ttl)
	return true
}

// Invalidate elimina una sesión (logout). No deja tombstone: el próximo
// lookup reporta Unknown, igual que un ID que nunca existió.
func (r *Registry) Invalidate(sid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sid]
	if !ok {
		return false
	}
	r.removeLocked(sid, s.Principal)
	return true
}

// SessionsFor lista las sesiones vivas de un principal, más vieja primero.
func (r *Registry) SessionsFor(principal string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sids := r.byPrincip[principal]
	out := make([]Session, 0, len(sids))
	for _, sid := range sids {
		if s, ok := r.sessions[sid]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// All lista todas las sesiones vivas (surface admin).
func (r *Registry) All() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// evictLocked desaloja una sesión por cupo: tombstone + una notificación.
func (r *Registry) evictLocked(sid, principal string, at time.Time) {
	r.removeLocked(sid, principal)
	r.tombstones[sid] = at
	for _, l := range r.listeners {
		l.OnSessionExpired(sid)
	}
}

func (r *Registry) removeLocked(sid, principal string) {
	delete(r.sessions, sid)
	sids := r.byPrincip[principal]
	for i, v := range sids {
		if v == sid {
			r.byPrincip[principal] = append(sids[:i], sids[i+1:]...)
			break
		}
	}
	if len(r.byPrincip[principal]) == 0 {
		delete(r.byPrincip, principal)
	}
}

// pruneTombstonesLocked olvida tombstones más viejos que el TTL de sesión.
// Un cliente que vuelve después de eso recibe Unknown, que ya es correcto:
// a esa altura la sesión también habría vencido sola.
func (r *Registry) pruneTombstonesLocked() {
	cutoff := r.now().Add(-r.ttl)
	for sid, at := range r.tombstones {
		if at.Before(cutoff) {
			delete(r.tombstones, sid)
		}
	}
}
