// Package alert notifica eventos de seguridad que exigen acción correctiva.
package alert

import "context"

// Event es un evento de seguridad. Action describe la medida ya tomada por
// el sistema (ej: "all remember-me tokens for the user were revoked").
type Event struct {
	Kind      string // "token_reuse"
	Principal string
	Series    string
	Detail    string
	Action    string
}

// Notifier publica eventos de seguridad. Las implementaciones no deben
// bloquear el camino del request más de lo imprescindible.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Multi reparte el evento a varios notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}
