package handlers

import (
	"net/http"

	httpx "github.com/dropDatabas3/gatekeeper/internal/http"
	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
	"github.com/dropDatabas3/gatekeeper/internal/rememberme"
	"github.com/dropDatabas3/gatekeeper/internal/session"
)

// Logout invalida la sesión y revoca la cadena remember-me del usuario.
// Es idempotente: sin sesión ni cookies igual responde 200.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	var principal string

	if ck, err := r.Cookie(g.SessionCookie); err == nil && ck.Value != "" {
		if s, state := g.Registry.Lookup(ck.Value); state == session.Active {
			principal = s.Principal
			g.Registry.Invalidate(s.ID)
		}
	}

	if principal != "" {
		if n, err := g.Remember.Revoke(r.Context(), principal); err != nil {
			logger.From(r.Context()).Error("remember-me revoke failed", logger.Err(err))
		} else if n > 0 {
			logger.From(r.Context()).Info("remember-me chain revoked",
				logger.Principal(principal), logger.Count(n))
		}
	} else if ck, err := r.Cookie(g.RememberCookie); err == nil && ck.Value != "" {
		// Sin sesión viva sólo podemos cosechar la serie de la cookie.
		if tok, err := rememberme.Decode(ck.Value); err == nil {
			if err := g.Remember.RevokeSeries(r.Context(), tok.Series); err != nil {
				logger.From(r.Context()).Error("remember-me series revoke failed", logger.Err(err))
			}
		}
	}

	httpx.ClearCookie(w, g.Cookies, g.SessionCookie)
	httpx.ClearCookie(w, g.Cookies, g.RememberCookie)
	httpx.WriteLogout(w)
}
