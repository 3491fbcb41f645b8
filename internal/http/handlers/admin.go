package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rememberme"
	"github.com/dropDatabas3/gatekeeper/internal/session"
)

// Admin agrupa los endpoints operativos, protegidos por X-Admin-API-Key.
type Admin struct {
	Registry *session.Registry
	Remember *rememberme.Service
}

type adminSession struct {
	SessionID string    `json:"session_id"`
	Principal string    `json:"principal"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ListSessions devuelve todas las sesiones vivas.
func (a *Admin) ListSessions(w http.ResponseWriter, r *http.Request) {
	all := a.Registry.All()
	out := make([]adminSession, 0, len(all))
	for _, s := range all {
		out = append(out, adminSession{
			SessionID: s.ID,
			Principal: s.Principal,
			CreatedAt: s.CreatedAt.UTC(),
			LastSeen:  s.LastSeen.UTC(),
			ExpiresAt: s.ExpiresAt.UTC(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"sessions": out,
	})
}

// DeleteSession revoca una sesión puntual. Igual que un logout para esa sesión.
func (a *Admin) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if !a.Registry.Invalidate(sid) {
		httpx.WriteError(w, http.StatusNotFound, "session not found")
		return
	}
	logger.From(r.Context()).Info("session revoked by admin", logger.SessionID(sid))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": http.StatusOK, "msg": "session revoked"})
}

// DeleteTokens revoca todas las series remember-me de un usuario.
func (a *Admin) DeleteTokens(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	n, err := a.Remember.Revoke(r.Context(), username)
	if err != nil {
		httpx.WriteUnavailable(w)
		return
	}
	logger.From(r.Context()).Info("remember-me chain revoked by admin",
		logger.Principal(username), logger.Count(n))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  http.StatusOK,
		"revoked": n,
	})
}
