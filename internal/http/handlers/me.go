package handlers

import (
	"net/http"
	"time"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/http/middlewares"
)

type meBody struct {
	Status    int       `json:"status"`
	Principal string    `json:"principal"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me devuelve el contexto de seguridad del request. Vive detrás del guard:
// si llegó acá, hay sesión activa.
func Me(w http.ResponseWriter, r *http.Request) {
	s := middlewares.GetSession(r.Context())
	if s == nil {
		httpx.WriteUnauthenticated(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meBody{
		Status:    http.StatusOK,
		Principal: s.Principal,
		SessionID: s.ID,
		ExpiresAt: s.ExpiresAt.UTC(),
	})
}
